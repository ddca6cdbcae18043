package models

type Circle struct {
	Radius        float64 `json:"radius"`
	Area          float64 `json:"area"`
	Circumference float64 `json:"circumference"`
}
