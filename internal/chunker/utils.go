package chunker

import "strings"

// Tokenize делит текст по пробельным символам, без стемминга и смены регистра
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// ChunkCount возвращает точное число чанков для total токенов
func ChunkCount(total int, cfg Config) int {
	switch {
	case total <= 0:
		return 0
	case total <= cfg.Window:
		return 1
	}
	step := cfg.Window - cfg.Overlap
	rest := total - cfg.Window
	return 1 + (rest+step-1)/step
}
