package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/storage"
	"go.uber.org/zap"
)

type inquiryView struct {
	model.Inquiry
	Attachments []storage.SignedAttachment `json:"attachments"`
}

func (a *API) makeInquiryView(c *gin.Context, inq model.Inquiry) inquiryView {
	view := inquiryView{
		Inquiry:     inq,
		Attachments: []storage.SignedAttachment{},
	}

	if a.Storage != nil && len(inq.Attachments) > 0 {
		view.Attachments = a.Storage.SignAttachments(c.Request.Context(), inq.Attachments)
	}

	return view
}

func normalizeInquiryStatus(s string) string {
	switch s {
	case model.InquiryPending, model.InquiryInProgress, model.InquiryResolved:
		return s
	default:
		return model.InquiryPending
	}
}

func (a *API) InquiryList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	q := a.DB.Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" && status != "all" {
		q = q.Where("status = ?", normalizeInquiryStatus(status))
	}

	var inquiries []model.Inquiry

	if err := q.Order("created_at DESC").Find(&inquiries).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch inquiries",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch inquiries", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	views := make([]inquiryView, len(inquiries))
	for i, inq := range inquiries {
		inq.Status = normalizeInquiryStatus(inq.Status)
		views[i] = a.makeInquiryView(c, inq)
	}

	c.JSON(http.StatusOK, gin.H{"inquiries": views})
}
