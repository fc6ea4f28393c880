package model

import "time"

// CourseSkill 课程难度
type CourseSkill string

const (
	CourseSkillBeginner     CourseSkill = "beginner"
	CourseSkillIntermediate CourseSkill = "intermediate"
	CourseSkillAdvanced     CourseSkill = "advanced"
)

// Valid 难度是否合法
func (s CourseSkill) Valid() bool {
	switch s {
	case CourseSkillBeginner, CourseSkillIntermediate, CourseSkillAdvanced:
		return true
	}
	return false
}

// Course 课程
//
// BootcampID 指向所属训练营；UserID 在创建时取自父训练营的所有者，
// 之后不随训练营转让变化（授权检查只看 Course 自身的 user 字段）。
type Course struct {
	ID                   string      `json:"_id" bson:"_id"`
	Title                string      `json:"title" bson:"title"`
	Description          string      `json:"description" bson:"description"`
	Weeks                int         `json:"weeks" bson:"weeks"`
	Tuition              float64     `json:"tuition" bson:"tuition"`
	MinimumSkill         CourseSkill `json:"minimum_skill" bson:"minimum_skill"`
	ScholarshipAvailable bool        `json:"scholarship_available" bson:"scholarship_available"`

	BootcampID string    `json:"bootcamp" bson:"bootcamp"`
	UserID     string    `json:"user" bson:"user"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
