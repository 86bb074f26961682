package establishments

// Establishment модель заведения из сервиса настроек заведений
type Establishment struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Timezone   string  `json:"timezone"`
	ManagerIDs []int64 `json:"manager_ids"`
}

// IsManager проверяет, что пользователь управляет заведением
func (e *Establishment) IsManager(userID int64) bool {
	for _, id := range e.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
