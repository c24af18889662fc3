package domain

import "time"

// Snapshot is the persisted copy of the page selection state.
// Timestamp is epoch milliseconds.
type Snapshot struct {
	Timestamp int64      `json:"timestamp"`
	State     *PageState `json:"state"`
}

type PageState struct {
	SelectedVariants Selection `json:"selectedVariants"`
	CEP              string    `json:"cep"`
	Address          *Address  `json:"address"`
	SelectedImage    string    `json:"selectedImage"`
}

func (s Snapshot) Valid() bool {
	return s.Timestamp > 0 && s.State != nil
}

// Age is measured against now; a snapshot from the future has zero age.
func (s Snapshot) Age(now time.Time) time.Duration {
	age := now.Sub(time.UnixMilli(s.Timestamp))
	if age < 0 {
		return 0
	}
	return age
}
