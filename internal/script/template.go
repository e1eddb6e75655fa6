package script

import "meditate/internal/catalog"

var seasonGreetings = map[catalog.Season]string{
	catalog.Spring: "春風輕拂，萬物復甦。",
	catalog.Summer: "夏日炎炎，心靜自然涼。",
	catalog.Autumn: "秋風送爽，收穫的季節。",
	catalog.Winter: "冬日沉靜，萬物蘊藏。",
}

var seasonClosings = map[catalog.Season]string{
	catalog.Spring: "帶著春天的生機與活力",
	catalog.Summer: "帶著夏日的清涼與寧靜",
	catalog.Autumn: "帶著秋天的豐盛與從容",
	catalog.Winter: "帶著冬日的溫暖與沉穩",
}

// StillnessPause is the unguided silence between the stillness prompts and
// the closing narrative.
const StillnessPause = 20.0

type line struct {
	text  string
	pause float64
}

var template = []line{
	// opening
	{"歡迎來到這段{name}觀想冥想。", 2},
	{"找一個舒適的姿勢，輕輕閉上眼睛。", 3},
	{"讓呼吸自然流動，不需要刻意控制。", 4},
	{"{greeting}", 3},
	// relaxation and grounding
	{"現在，讓我們一起走進一座寧靜的草藥園。", 4},
	{"想像你來到一處{name}的生長之地。", 3},
	{"陽光溫柔地灑落，微風輕輕吹過。", 4},
	{"眼前是珍貴的{name}，靜靜地等待著你。", 4},
	// visual
	{"走近一些，仔細觀察它的樣貌。", 3},
	{"你看見{visual}。", 5},
	{"在光線下，它散發著生命的光彩。", 4},
	{"這是大自然賜予我們的珍貴禮物。", 4},
	// aroma
	{"現在，輕輕靠近，感受它的氣息。", 3},
	{"一股{aroma}緩緩升起。", 4},
	{"吸氣，讓這份香氣進入你的身體。", 4},
	{"感覺這股氣息隨著呼吸，流入全身。", 5},
	// effect and sensation
	{"{name}的主要功效是{effect}。", 4},
	{"想像這份能量正在你的體內流動。", 3},
	{"{sensation}。", 6},
	// body diffusion
	{"讓這份能量持續滋養你的身心。", 5},
	{"每一次呼吸，都在加深這份連結。", 5},
	{"現在，安靜地停留在這份感受中。", 3},
	{"讓身體自然地吸收這份療癒能量。", 3},
	{"", StillnessPause},
	// closing
	{"慢慢地，讓{name}的影像淡去。", 4},
	{"但那份滋養的感覺，會留在你的身體裡。", 4},
	{"感覺你的呼吸，感覺此刻的寧靜。", 4},
	{"輕輕動一動手指和腳趾。", 3},
	{"準備好的時候，慢慢睜開眼睛。", 4},
	{"{closing}，繼續你的一天。", 5},
}
