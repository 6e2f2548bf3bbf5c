package server

import "math/rand/v2"

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "沉稳的", "机智的", "神秘的", "固执的",
		"饥饿的", "谨慎的", "狡猾的", "威武的", "淡定的",
		"贪婪的", "高傲的", "忠诚的", "冒失的", "节俭的",
	}

	nouns = []string{
		"机甲", "工人", "农夫", "将军", "侦察兵",
		"铁匠", "骑手", "工程师", "领主", "矿工",
		"密探", "船长", "炮手", "猎人", "商人",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}
