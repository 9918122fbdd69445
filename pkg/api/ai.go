package api

// GenerateNotesRequest представляет запрос на генерацию стикеров по теме
type GenerateNotesRequest struct {
	Topic string `json:"topic"` // тема брейншторма
	Count int    `json:"count"` // желаемое количество стикеров (1-10)
}

// GenerateNotesResponse представляет ответ с сгенерированными стикерами.
// Сервер либо возвращает полный набор, либо ошибку - частичные наборы
// не отдаются.
type GenerateNotesResponse struct {
	Notes []string `json:"notes"`
}
