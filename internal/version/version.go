package version

import (
	"fmt"
	"time"
)

// AppName отдается в /version и в стартовом логе.
const AppName = "isometric-rpg-server"

// Заполняются линкером через -ldflags -X.
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

// Точка отсчета номеров сборок - день закладки проекта.
var buildEpoch = time.Date(
	2025, time.March, 1,
	0, 0, 0, 0,
	time.UTC,
)

// Info - метаданные сборки в структурном виде.
type Info struct {
	App        string `json:"app"`
	BuildID    int    `json:"build_id"`
	BuildDate  string `json:"build_date"`
	Commit     string `json:"commit"`
	Branch     string `json:"branch"`
	CI         string `json:"ci"`
	Calculated bool   `json:"calculated"`
	Error      string `json:"error,omitempty"`
}

// BuildID считает номер сборки как число дней от эпохи до BuildDate.
func BuildID() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("BuildDate пуст")
	}

	t, err := time.ParseInLocation("2006-01-02", BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("некорректный BuildDate %q: %w", BuildDate, err)
	}
	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s раньше эпохи", BuildDate)
	}

	// Часы вместо суток: обе даты в UTC, переходов на летнее время нет
	return int(t.Sub(buildEpoch).Hours() / 24), nil
}

// Get возвращает метаданные сборки. Безопасен в любой момент.
func Get() Info {
	info := Info{
		App:       AppName,
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
		CI:        BuildCI,
	}

	id, err := BuildID()
	if err != nil {
		info.Error = err.Error()
		return info
	}

	info.BuildID = id
	info.Calculated = true
	return info
}

// String возвращает строку сборки для логов.
func String() string {
	info := Get()
	if !info.Calculated {
		return fmt.Sprintf("%s build unknown (%s)", AppName, info.Error)
	}
	return fmt.Sprintf(
		"%s build %d (%s) commit[%s] branch[%s] ci[%s]",
		AppName,
		info.BuildID,
		info.BuildDate,
		coalesce(info.Commit, "unknown"),
		coalesce(info.Branch, "unknown"),
		coalesce(info.CI, "local"),
	)
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
