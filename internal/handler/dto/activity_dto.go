package dto

type ListActivityRequest struct {
	Limit int `form:"limit,default=20" binding:"omitempty,gte=1,lte=100"`
}
