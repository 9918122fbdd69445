// Package iocli абстрагирует терминальный ввод/вывод команд CLI,
// чтобы тесты могли подменять stdin/stdout.
package iocli

//go:generate moq -out io_mock.go . IO

// IO - поток общения команды с пользователем
type IO interface {
	// Println и Printf пишут в stdout
	Println(a ...any)
	Printf(format string, a ...any)

	// ReadInput читает строку после подсказки prompt
	ReadInput(prompt string) (string, error)

	// ReadPassword читает секрет без эха в терминале
	ReadPassword(prompt string) (string, error)
}
