package entity

// Appointment is a booking request as submitted through the intake endpoint.
// Rows are only ever inserted; nothing updates or deletes them.
type Appointment struct {
	ID         int    `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:varchar(100)"`
	Email      string `gorm:"type:varchar(100)"`
	Phone      string `gorm:"type:varchar(20)"`
	Date       string `gorm:"type:date"` // stored as given; the database coerces it
	Time       string `gorm:"type:varchar(20)"`
	Department string `gorm:"type:varchar(50)"`
	Message    string `gorm:"type:text"`
}

func (Appointment) TableName() string {
	return "appointments"
}
