package domain

import (
	"fmt"
	"strconv"
)

// EntityID - упакованный идентификатор (Generation + Index)
type EntityID uint64

// Конфигурация битов
const (
	bitsIndex      = 40
	bitsGeneration = 24

	// Сдвиги
	shiftGeneration = bitsIndex

	// Маски (для извлечения значений)
	maskIndex      = (1 << bitsIndex) - 1      // 0x000000FFFFFFFFFF
	maskGeneration = (1 << bitsGeneration) - 1 // 0xFFFFFF
)

// NoEntity - нулевое значение, "сущности нет"
const NoEntity EntityID = 0

// --- КОНСТРУКТОР ---

// PackEntityID создает ID из компонентов.
// Индекс 0 зарезервирован под NoEntity, счет начинается с 1.
func PackEntityID(generation uint32, index uint64) EntityID {
	id := index & maskIndex
	id |= (uint64(generation) & maskGeneration) << shiftGeneration
	return EntityID(id)
}

// --- МЕТОДЫ ДОСТУПА ---

func (id EntityID) Generation() uint32 {
	return uint32((id >> shiftGeneration) & maskGeneration)
}

func (id EntityID) Index() uint64 {
	return uint64(id & maskIndex)
}

func (id EntityID) IsValid() bool {
	return id != NoEntity
}

// --- СЕРИАЛИЗАЦИЯ (Для фронтенда) ---

// MarshalJSON сериализует ID в строку, так как JS теряет точность для больших int64
func (id EntityID) MarshalJSON() ([]byte, error) {
	s := strconv.FormatUint(uint64(id), 10)
	return []byte(`"` + s + `"`), nil
}

// UnmarshalJSON парсит строку или число из JSON
func (id *EntityID) UnmarshalJSON(data []byte) error {
	// Удаляем кавычки, если есть
	if len(data) > 1 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	val, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = EntityID(val)
	return nil
}

// Decimal возвращает десятичную форму - ту же, что MarshalJSON.
// Эта форма пригодна для обратного ParseEntityID, поэтому именно она
// уходит клиентам в снапшотах и событиях.
func (id EntityID) Decimal() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseEntityID парсит десятичную строку (формат MarshalJSON)
func ParseEntityID(s string) (EntityID, error) {
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NoEntity, fmt.Errorf("некорректный ID сущности %q: %w", s, err)
	}
	return EntityID(val), nil
}

// String для логов: выводим красиво [Gen:Idx]. Наружу не отдавать,
// ParseEntityID эту форму не принимает.
func (id EntityID) String() string {
	return fmt.Sprintf("[%d:%d]", id.Generation(), id.Index())
}
