package models

// RegisterModels lists every entity AutoMigrate should manage, parents first.
func RegisterModels() []interface{} {
	return []interface{}{
		&User{},
		&Comment{},
		&Attachment{},
	}
}
