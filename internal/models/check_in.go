package models

import "time"

// CheckIn records that a member showed up for the team on a given day.
// Day is the calendar date in YYYY-MM-DD form.
type CheckIn struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TeamID    uint64    `gorm:"not null;uniqueIndex:idx_check_ins_team_user_day" json:"team_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_check_ins_team_user_day" json:"user_id"`
	Day       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_check_ins_team_user_day" json:"day"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}
