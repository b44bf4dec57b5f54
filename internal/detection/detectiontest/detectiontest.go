// Package detectiontest provides small trained profiles for tests of packages
// that need a working profile.Set.
package detectiontest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langpredict/internal/detection/profile"
)

// English training text.
const English = `The quick brown fox jumps over the lazy dog. The dog was not lazy at all; it was
simply tired after a long day in the fields with the farmer. When the brown fox came back the next
morning, the dog was waiting for him near the old wooden gate. They looked at each other for a
while, and then the quick fox ran away into the forest.

There is a small village at the edge of the forest where people still bake their own bread. Every
morning the baker opens the shop before the sun rises, and the smell of fresh bread fills the
street. Children walk past the shop on their way to school and the baker often gives them a warm
roll. In the evening the families gather in the square to talk about the weather, the harvest and
the news from the city.

The weather in the north of the country is usually cold and wet during the winter. Many people
prefer to stay at home, reading books or watching films with their friends. In the summer the days
are long and bright, and everybody wants to be outside. The parks are full of people who play
football, ride their bikes or simply lie on the grass in the sun.

Learning a new language takes time and patience. You should read every day, listen to the radio
and try to speak with other people whenever you can. It is normal to make mistakes, and the most
important thing is to keep going. After a few months you will notice that you understand much more
than before, and that the words come to you without thinking.

The government announced on Tuesday that it would invest in new roads and railways over the next
ten years. The minister said that the project would create thousands of jobs and help businesses
in every region. Critics argued that the money should be spent on schools and hospitals instead.
The debate is expected to continue in parliament throughout the week.

My brother works as a software engineer in a large company. He writes code all day and says that
the hardest part of his job is not the programming itself but understanding what the customers
really want. On the weekend he likes to go hiking in the mountains with his dog, which is brown,
quick and never lazy.`

// French training text.
const French = `Le renard brun rapide saute par-dessus le chien paresseux. Le chien n'était pas
vraiment paresseux ; il était simplement fatigué après une longue journée dans les champs avec le
fermier. Quand le renard brun est revenu le lendemain matin, le chien l'attendait près de la vieille
porte en bois. Ils se sont regardés pendant un moment, puis le renard rapide s'est enfui dans la
forêt.

Il y a un petit village au bord de la forêt où les gens font encore leur propre pain. Chaque matin,
le boulanger ouvre la boutique avant le lever du soleil, et l'odeur du pain frais remplit la rue.
Les enfants passent devant la boutique en allant à l'école et le boulanger leur donne souvent un
petit pain chaud. Le soir, les familles se réunissent sur la place pour parler du temps, de la
récolte et des nouvelles de la ville.

Le temps dans le nord du pays est généralement froid et humide pendant l'hiver. Beaucoup de gens
préfèrent rester chez eux, à lire des livres ou à regarder des films avec leurs amis. En été, les
journées sont longues et lumineuses, et tout le monde veut être dehors. Les parcs sont pleins de
gens qui jouent au football, font du vélo ou se couchent simplement sur l'herbe au soleil.

Apprendre une nouvelle langue demande du temps et de la patience. Il faut lire tous les jours,
écouter la radio et essayer de parler avec d'autres personnes dès que possible. Il est normal de
faire des erreurs, et le plus important est de continuer. Après quelques mois, vous remarquerez
que vous comprenez beaucoup plus qu'avant, et que les mots vous viennent sans réfléchir.

Le gouvernement a annoncé mardi qu'il investirait dans de nouvelles routes et de nouveaux chemins
de fer au cours des dix prochaines années. Le ministre a déclaré que le projet créerait des milliers
d'emplois et aiderait les entreprises de chaque région. Les critiques ont estimé que l'argent
devrait plutôt être consacré aux écoles et aux hôpitaux. Le débat devrait se poursuivre au
parlement pendant toute la semaine.

Mon frère travaille comme ingénieur logiciel dans une grande entreprise. Il écrit du code toute la
journée et dit que la partie la plus difficile de son travail n'est pas la programmation elle-même
mais de comprendre ce que les clients veulent vraiment. Le week-end, il aime faire de la randonnée
en montagne avec son chien, qui est brun, rapide et jamais paresseux.`

// Japanese training text.
const Japanese = `日本語の文章を書くのはとても楽しいです。毎朝、私は駅まで歩いて行き、電車に乗って会社に行きます。
会社では新しいソフトウェアを作っています。昼ごはんは同僚と一緒に近くのレストランで食べます。
週末には家族と公園へ行ったり、映画を見たりします。日本の夏はとても暑いですが、秋は涼しくて気持ちがいいです。
東京には人がたくさん住んでいて、いつもにぎやかです。京都には古いお寺や神社がたくさんあります。
日本語を勉強するのは難しいですが、毎日少しずつ練習すれば、だんだん上手になります。`

// Profiles trains fresh en, fr and ja profiles, in that order. They are not pruned.
func Profiles() []*profile.Profile {
	en, fr, ja := profile.New("en"), profile.New("fr"), profile.New("ja")
	en.Update(English)
	fr.Update(French)
	ja.Update(Japanese)
	return []*profile.Profile{en, fr, ja}
}

// Set builds a seeded Set from Profiles.
func Set(t testing.TB, opts ...profile.SetOption) *profile.Set {
	t.Helper()
	s, err := profile.NewSet(Profiles(), append([]profile.SetOption{profile.WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return s
}
