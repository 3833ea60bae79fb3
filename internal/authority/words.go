package authority

import (
	"fmt"
	"math/rand"
	"unicode/utf8"
)

// alphabet fills the board cells that don't belong to the word.
var alphabet = []rune("АБВГДЕЖЗИКЛМНОПРСТУФХЦЧШЩЫЬЭЮЯ")

// wordsByLength is the development word list. The production backend owns
// real word selection; this only has to be plausible enough to play against.
var wordsByLength = map[int][]string{
	5: {"КНИГА", "ЗЕМЛЯ", "ВЕСНА", "ГОРОД", "ОКЕАН", "СЛОВО", "ТОЧКА", "РЕЧКА"},
	6: {"БЕРЕЗА", "ГОЛОВА", "ПОБЕДА", "СОЛНЦЕ", "ОБЛАКО", "ДОРОГА", "МОЛОКО", "МАШИНА"},
	7: {"СВОБОДА", "КАРТИНА", "ИСТОРИЯ", "ПРИРОДА", "СТОЛИЦА", "ДЕРЕВНЯ", "ХОЛОДОК"},
	8: {"КАРТОШКА", "СОЛНЫШКО", "ПОБЕДИТЬ", "КОЛБАСКА", "МОЛОДЕЖЬ", "СКОРОСТЬ"},
}

func pickWord(rng *rand.Rand, length int) (string, error) {
	words := wordsByLength[length]
	if len(words) == 0 {
		return "", fmt.Errorf("no words of length %d", length)
	}
	return words[rng.Intn(len(words))], nil
}

func randomLetter(rng *rand.Rand) string {
	return string(alphabet[rng.Intn(len(alphabet))])
}

func runeCount(word string) int {
	return utf8.RuneCountInString(word)
}
