package service

import (
	"math/rand/v2"
)

// Default display names in the style of the game table. Players who join
// without a name draw one of these.
var randomNicknames = []string{
	"杠上花", "清一色", "大三元", "七对子", "碰碰胡",
	"自摸王", "海底捞", "门清狂", "同花顺", "顺子哥",
	"发财猫", "旺财狗", "锦鲤王", "招财猫", "金元宝",
	"幸运星", "常胜将", "翻盘王", "手气王", "三缺一",
}

var randomEmojis = []string{
	"😀", "😎", "🤓", "🥳", "😇", "🤩",
	"🐶", "🐱", "🐼", "🦊", "🐯", "🐰",
	"🍀", "🌸", "🍎", "⭐", "🔥", "🎲",
}

// RandomNickname returns a default display name for an anonymous player
func RandomNickname() string {
	return randomNicknames[rand.IntN(len(randomNicknames))]
}

// RandomEmoji returns a default avatar emoji
func RandomEmoji() string {
	return randomEmojis[rand.IntN(len(randomEmojis))]
}
