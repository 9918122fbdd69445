package models

// Source происхождение мутации документа.
// Reconciler пишет в store с SourceRemote, observer подписан только
// на SourceUser - это основной механизм подавления echo-петли.
type Source string

const (
	// SourceUser мутация от локального пользователя
	SourceUser Source = "user"
	// SourceRemote мутация, примененная reconciler'ом по удаленному батчу
	SourceRemote Source = "remote"
)

// ChangeBatch представляет набор изменений записей за одно окно
// коалесинга. Потребляется ровно один раз и отбрасывается -
// операционный лог не ведется (last-write-wins).
type ChangeBatch struct {
	Added   []*Record `json:"added"`
	Updated []*Record `json:"updated"`
	Removed []string  `json:"removed"`
	Source  Source    `json:"source"`
}

// Empty возвращает true, если батч не содержит изменений
func (b *ChangeBatch) Empty() bool {
	return len(b.Added) == 0 && len(b.Updated) == 0 && len(b.Removed) == 0
}

// Size возвращает общее количество изменений в батче
func (b *ChangeBatch) Size() int {
	return len(b.Added) + len(b.Updated) + len(b.Removed)
}
