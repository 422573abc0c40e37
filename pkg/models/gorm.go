package models

// ModelsToAutoMigrate returns the models gorm AutoMigrate creates.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&RepositoryObject{},
		&NativeIdentifier{},
		&ExternalIdentifier{},
		&IdentifierSequence{},
		&IdentifierOutbox{},
	}
}
