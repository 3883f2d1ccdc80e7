package models

import (
	"log"

	"github.com/lendfocus/mortgage_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Person{}, &Application{}, &ComputedMetrics{}, &Property{}, &Document{},
		&Company{}, &Location{}, &LoanProgram{},
		&BusinessRule{}, &LoanCondition{}, &StatusHistory{}, &Relationship{},
		&PubSubMessageRecord{}, &IdempotencyKey{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
