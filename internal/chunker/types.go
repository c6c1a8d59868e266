package chunker

import "subsearch/internal/domain"

const (
	DefaultWindow  = 500 // токенов в чанке
	DefaultOverlap = 50  // токенов перекрытия между соседними чанками
)

// Chunker - интерфейс для всех типов chunker'ов
type Chunker interface {
	// Chunk разбивает нормализованный текст документа на чанки
	Chunk(sourceID, text string) []domain.Chunk

	// Name возвращает название chunker'а для логирования
	Name() string
}

// Config содержит параметры окна
type Config struct {
	Window  int // Размер окна в токенах
	Overlap int // Размер overlap между чанками в токенах
}

// DefaultConfig возвращает окно 500 / overlap 50
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, Overlap: DefaultOverlap}
}

// Validate требует window > 0 и 0 <= overlap < window.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return domain.NewConfigurationError("chunk window must be greater than zero, got %d", c.Window)
	}
	if c.Overlap < 0 {
		return domain.NewConfigurationError("chunk overlap cannot be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Window {
		return domain.NewConfigurationError("chunk overlap %d must be smaller than window %d", c.Overlap, c.Window)
	}
	return nil
}
