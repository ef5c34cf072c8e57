package entity

// Label — категория блюда в таксономии.
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SampleCount int    `json:"sample_count"`
}

// FindLabel ищет метку по идентификатору.
func FindLabel(labels []Label, id int64) (Label, bool) {
	for _, l := range labels {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}
