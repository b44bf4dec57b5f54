// Package normalize canonicalizes runes before n-gram extraction so that
// orthographic variants of the same character share statistics.
//
// Every rune is mapped independently according to the Unicode block it belongs
// to. The space rune doubles as the word separator: anything that maps to it
// ends the current word.
package normalize

import "strings"

// Space is the separator sentinel produced for punctuation, digits and symbols.
const Space = ' '

type block struct {
	lo, hi rune
}

func (b block) contains(r rune) bool { return r >= b.lo && r <= b.hi }

// Unicode blocks consulted by the normalizer.
var (
	basicLatin              = block{0x0000, 0x007F}
	latin1Supplement        = block{0x0080, 0x00FF}
	latinExtendedB          = block{0x0180, 0x024F}
	arabic                  = block{0x0600, 0x06FF}
	latinExtendedAdditional = block{0x1E00, 0x1EFF}
	generalPunctuation      = block{0x2000, 0x206F}
	hiragana                = block{0x3040, 0x309F}
	katakana                = block{0x30A0, 0x30FF}
	bopomofo                = block{0x3100, 0x312F}
	bopomofoExtended        = block{0x31A0, 0x31BF}
	cjkUnifiedIdeographs    = block{0x4E00, 0x9FFF}
	hangulSyllables         = block{0xAC00, 0xD7AF}
)

// latin1Excluded lists the Latin-1 Supplement runes treated as separators:
// no-break space, guillemets and the degree sign.
const latin1Excluded = "\u00a0«°»"

// Normalize maps r to its canonical rune.
func Normalize(r rune) rune {
	switch {
	case basicLatin.contains(r):
		if (r < 'A') || (r < 'a' && r > 'Z') || r > 'z' {
			return Space
		}
	case latin1Supplement.contains(r):
		if strings.ContainsRune(latin1Excluded, r) {
			return Space
		}
	case latinExtendedB.contains(r):
		// Romanian comma-below letters fold onto the cedilla forms.
		switch r {
		case 'ș':
			return 'ş'
		case 'ț':
			return 'ţ'
		}
	case generalPunctuation.contains(r):
		return Space
	case arabic.contains(r):
		if r == 'ی' {
			return 'ي' // Farsi yeh
		}
	case latinExtendedAdditional.contains(r):
		if r >= 'Ạ' {
			return 'ể'
		}
	case hiragana.contains(r):
		return 'あ'
	case katakana.contains(r):
		return 'ア'
	case bopomofo.contains(r), bopomofoExtended.contains(r):
		return 'ㄅ'
	case cjkUnifiedIdeographs.contains(r):
		if rep, ok := cjkMap[r]; ok {
			return rep
		}
	case hangulSyllables.contains(r):
		return '가'
	}
	return r
}

// String applies Normalize to every rune of s.
func String(s string) string {
	return strings.Map(Normalize, s)
}

// IsLatinExtendedAdditional reports whether r lies in the Latin Extended
// Additional block (Vietnamese precomposed letters live there).
func IsLatinExtendedAdditional(r rune) bool {
	return latinExtendedAdditional.contains(r)
}
