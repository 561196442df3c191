package gacha

import "math/rand/v2"

func randomIndex(n int) int {
	return rand.IntN(n)
}
