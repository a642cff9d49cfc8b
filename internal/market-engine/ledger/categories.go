package ledger

import "strings"

// CategoryOther recebe qualquer categoria desconhecida.
const CategoryOther = "Other"

var Categories = []string{"Crypto", "Politics", "Sports", "Technology", "Gaming", "NFTs", "AI", CategoryOther}

// NormalizeCategory devolve a grafia canônica ou "Other".
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range Categories {
		if strings.EqualFold(c, known) {
			return known
		}
	}
	return CategoryOther
}
