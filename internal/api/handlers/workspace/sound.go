package workspace

// soundFiles 動作對應的音效檔
var soundFiles = map[string]string{
	"slice": "knife-cutting.mp3",
	"dice":  "knife-chopping.mp3",
	"chop":  "knife-chopping.mp3",
	"mash":  "mashing.mp3",
	"mix":   "mixing.mp3",
}

// defaultSound 未列出的動作使用
const defaultSound = "action.mp3"

// SoundFor 回傳動作的音效路徑
func SoundFor(action string) string {
	if f, ok := soundFiles[action]; ok {
		return "/sounds/" + f
	}
	return "/sounds/" + defaultSound
}
