package database

import (
	"gorm.io/gorm"
)

type Migration interface {
	Migrate(*gorm.DB) error
}

type TableMigration struct {
	Model interface{}
}

func (t TableMigration) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(t.Model)
}

var Tabels []interface{} = []interface{}{
	&User{},
	&Session{},
	&Organization{},
	&OrganizationMember{},
	&ConnectedProvider{},
	&ApiKeyCredential{},
	&UserProviderPreference{},
}

var Migrations []Migration = []Migration{
	TableMigration{&User{}},
	TableMigration{&Session{}},
	TableMigration{&Organization{}},
	TableMigration{&OrganizationMember{}},
	TableMigration{&ConnectedProvider{}},
	TableMigration{&ApiKeyCredential{}},
	TableMigration{&UserProviderPreference{}},
}
