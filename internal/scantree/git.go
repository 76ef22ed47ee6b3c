package scantree

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// gitStatusTimeout ограничивает время опроса одного репозитория,
// чтобы медленный диск не растягивал весь скан.
const gitStatusTimeout = 2 * time.Second

// gitClean опрашивает состояние рабочей копии через git status.
// Любая ошибка (git не установлен, таймаут, битый репозиторий)
// трактуется как "грязный": маяк в этом случае честнее показать
// предупреждением, чем ложным зелёным.
func gitClean(ctx context.Context, repoPath string) bool {
	ctx, cancel := context.WithTimeout(ctx, gitStatusTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "status", "--porcelain")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == ""
}
