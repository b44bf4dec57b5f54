package normalize

// cjkClasses groups CJK unified ideographs that are variant forms of one
// character (simplified, traditional and Japanese shinjitai). Every member of a
// class normalizes to the class's first rune. CJK profiles must be trained with
// this same table.
var cjkClasses = []string{
	"国國囯", "学學斈", "体體躰", "会會", "来來", "时時",
	"说說", "对對", "发發髮", "经經", "过過", "实實",
	"点點", "动動", "现現", "当當", "长長", "开開",
	"关關", "门門", "问問", "间間", "东東", "车車",
	"马馬", "鸟鳥", "鱼魚", "龙龍竜", "电電", "话話",
	"语語", "读讀", "书書", "画畫", "图圖", "万萬",
	"与與", "专專", "业業", "丝絲", "两兩", "严嚴",
	"个個箇", "丰豐", "临臨", "为爲為", "丽麗", "举舉挙",
	"义義", "乌烏", "乐樂楽", "乡鄉郷", "买買", "乱亂",
	"争爭", "亚亞亜", "产產", "亲親", "亿億", "仅僅",
	"从從", "仓倉", "们們", "价價", "众眾衆", "优優",
	"伟偉", "传傳伝", "伤傷", "伦倫", "侧側", "侨僑",
	"俭儉倹", "债債", "倾傾", "党黨", "兰蘭", "兴興",
	"兹茲", "养養", "兽獸獣", "冈岡", "写寫", "军軍",
	"农農", "冲衝", "决決", "况況", "冻凍", "净淨浄",
	"准準", "凉涼", "减減", "凤鳳", "処處处", "击擊撃",
	"划劃", "则則", "刚剛", "创創", "删刪", "别別",
	"刹剎", "剂劑剤", "剑劍剣", "剧劇", "劝勸勧", "办辦",
	"务務", "劳勞労", "势勢", "勋勳", "区區", "医醫",
	"华華", "协協", "单單", "卖賣売", "卫衛", "却卻",
	"厂廠", "厅廳庁", "历歷曆", "压壓圧", "厌厭", "县縣県",
	"参參", "双雙", "变變変", "叙敘", "台臺檯", "叶葉",
	"号號", "叹嘆歎", "员員", "响響", "团團", "园園",
	"围圍", "圣聖", "场場", "坏壞", "块塊", "坚堅",
	"坛壇",
}

var cjkMap = buildCJKMap(cjkClasses)

func buildCJKMap(classes []string) map[rune]rune {
	m := make(map[rune]rune, len(classes)*3)
	for _, class := range classes {
		var rep rune
		for i, r := range []rune(class) {
			if i == 0 {
				rep = r
			}
			m[r] = rep
		}
	}
	return m
}
