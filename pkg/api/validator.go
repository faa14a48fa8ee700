package api

import "errors"

// Validator - интерфейс, который реализуют DTO с проверками.
type Validator interface {
	Validate() error
}

func (p SpawnPayload) Validate() error {
	switch p.Kind {
	case "", "fighter", "dummy":
		return nil
	default:
		return errors.New("kind должен быть fighter или dummy")
	}
}

func (p AttackPayload) Validate() error {
	if p.AttackerID == "" || p.TargetID == "" {
		return errors.New("attackerId и targetId обязательны")
	}
	return nil
}

func (p StancePayload) Validate() error {
	if p.EntityID == "" {
		return errors.New("entityId обязателен")
	}
	switch p.Stance {
	case "neutral", "aggressive", "defensive":
		return nil
	default:
		return errors.New("неизвестная стойка")
	}
}
