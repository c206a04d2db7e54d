package store

import (
	"strings"

	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

// Slugify derives a post link from its title. Whitespace runs become a
// single hyphen, "? . ! $ @" are dropped, "& < >" are spelled out and
// everything else passes through unchanged.
func Slugify(title string) string {
	sb := utils.SharedStringBuilderPool.Get()
	defer utils.SharedStringBuilderPool.Put(sb)

	for i, word := range strings.Fields(title) {
		if i > 0 {
			sb.WriteByte('-')
		}
		for _, r := range word {
			switch r {
			case '?', '.', '!', '$', '@':
			case '&':
				sb.WriteString("-and-")
			case '<':
				sb.WriteString("-lt-")
			case '>':
				sb.WriteString("-gt-")
			default:
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
