package version

import "testing"

func TestBuildID(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		expected  int
		wantError bool
	}{
		{
			name:     "день эпохи",
			date:     "2025-03-01",
			expected: 0,
		},
		{
			name:     "следующий день",
			date:     "2025-03-02",
			expected: 1,
		},
		{
			name:     "через год",
			date:     "2026-03-01",
			expected: 365,
		},
		{
			name:     "с високосным годом внутри",
			date:     "2029-03-01",
			expected: 1461,
		},
		{
			name:      "кривой формат",
			date:      "invalid",
			wantError: true,
		},
		{
			name:      "пустая дата",
			date:      "",
			wantError: true,
		},
		{
			name:      "раньше эпохи",
			date:      "2025-02-28",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := BuildDate
			defer func() { BuildDate = old }()

			BuildDate = tt.date

			got, err := BuildID()

			if tt.wantError {
				if err == nil {
					t.Fatalf("ожидалась ошибка, получен id=%d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if got != tt.expected {
				t.Errorf("BuildID() = %d, ожидалось %d", got, tt.expected)
			}
		})
	}
}

func TestStringWithoutBuildDate(t *testing.T) {
	old := BuildDate
	defer func() { BuildDate = old }()

	BuildDate = ""
	got := String()
	if got == "" {
		t.Fatal("String() не должен быть пустым даже без метаданных")
	}
}
