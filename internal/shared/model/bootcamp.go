package model

import "time"

// Career 训练营方向枚举
type Career string

const (
	CareerWebDevelopment    Career = "Web Development"
	CareerMobileDevelopment Career = "Mobile Development"
	CareerUIUX              Career = "UI/UX"
	CareerDataScience       Career = "Data Science"
	CareerBusiness          Career = "Business"
	CareerOther             Career = "Other"
)

// Location GeoJSON Point 位置
//
// Coordinates 顺序为 [经度, 纬度]（MongoDB 2dsphere 约定）
type Location struct {
	Type             string    `json:"type" bson:"type"` // 恒为 "Point"
	Coordinates      []float64 `json:"coordinates" bson:"coordinates"`
	FormattedAddress string    `json:"formatted_address,omitempty" bson:"formatted_address,omitempty"`
	Street           string    `json:"street,omitempty" bson:"street,omitempty"`
	City             string    `json:"city,omitempty" bson:"city,omitempty"`
	State            string    `json:"state,omitempty" bson:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty" bson:"country,omitempty"`
}

// Bootcamp 训练营
//
// UserID 为所有者（发布者）外键；非 admin 用户至多拥有一个训练营，
// 该约束在创建接口的请求内检查（见 DESIGN.md）。
type Bootcamp struct {
	ID          string `json:"_id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Website     string `json:"website,omitempty" bson:"website,omitempty"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email       string `json:"email,omitempty" bson:"email,omitempty"`

	// Address 只用于地理编码输入，不持久化；落库的是 Location
	Address  string    `json:"address,omitempty" bson:"-"`
	Location *Location `json:"location,omitempty" bson:"location,omitempty"`

	Careers       []Career `json:"careers" bson:"careers"`
	Housing       bool     `json:"housing" bson:"housing"`
	JobAssistance bool     `json:"job_assistance" bson:"job_assistance"`
	JobGuarantee  bool     `json:"job_guarantee" bson:"job_guarantee"`
	AcceptGIBill  bool     `json:"accept_gi_bill" bson:"accept_gi_bill"`

	AverageCost float64 `json:"average_cost,omitempty" bson:"average_cost,omitempty"`
	Photo       string  `json:"photo,omitempty" bson:"photo,omitempty"` // photo_<id>.<ext>

	UserID    string    `json:"user" bson:"user"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
