package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/verifybot/domain"
)

// GuildNameFunc resolves a guild's display name for page rendering.
// Web-only deployments have no gateway connection and return "".
type GuildNameFunc func(guildID string) string

// VerifyHandlers serves the web half of the verification flow: the
// landing page a user reaches from their DM link plus the JSON API the
// page's scripts call.
type VerifyHandlers struct {
	verificationSvc domain.VerificationService
	captchaSvc      domain.CaptchaVerifier
	granter         domain.RoleGranter
	siteKey         string
	guildName       GuildNameFunc
}

// NewVerifyHandlers creates new web verification handlers
func NewVerifyHandlers(
	verificationSvc domain.VerificationService,
	captchaSvc domain.CaptchaVerifier,
	granter domain.RoleGranter,
	siteKey string,
	guildName GuildNameFunc,
) *VerifyHandlers {
	if guildName == nil {
		guildName = func(string) string { return "" }
	}
	return &VerifyHandlers{
		verificationSvc: verificationSvc,
		captchaSvc:      captchaSvc,
		granter:         granter,
		siteKey:         siteKey,
		guildName:       guildName,
	}
}

// RecaptchaRequest represents a captcha completion submission
type RecaptchaRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Response string `json:"recaptchaResponse" binding:"required"`
}

// SMSSendRequest represents a request for an SMS code
type SMSSendRequest struct {
	UserID      string `json:"userId" binding:"required"`
	Token       string `json:"token" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	CountryCode string `json:"countryCode" binding:"required"`
}

// SMSVerifyRequest represents an SMS code submission
type SMSVerifyRequest struct {
	UserID string `json:"userId" binding:"required"`
	Token  string `json:"token" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// CompleteRequest represents a finalize submission
type CompleteRequest struct {
	UserID  string `json:"userId" binding:"required"`
	GuildID string `json:"guildId" binding:"required"`
	Token   string `json:"token" binding:"required"`
}

// ShowPage renders the verification page behind a DM link
func (h *VerifyHandlers) ShowPage(c *gin.Context) {
	userID := c.Param("userId")
	token := c.Param("token")

	record, policy, err := h.verificationSvc.RecordForToken(c.Request.Context(), userID, token, c.ClientIP())
	if err != nil {
		status, page := errorPage(err)
		c.HTML(status, "error.html", page)
		return
	}

	c.HTML(http.StatusOK, "verify.html", gin.H{
		"userId":           userID,
		"token":            token,
		"guildId":          record.GuildID,
		"guildName":        h.guildName(record.GuildID),
		"requireRecaptcha": policy.RequireRecaptcha,
		"requireSMS":       policy.RequireSMS,
		"recaptchaDone":    record.Status.Recaptcha,
		"smsDone":          record.Status.SMS,
		"recaptchaSiteKey": h.siteKey,
	})
}

// Status reports the record's progress as JSON for page polling
func (h *VerifyHandlers) Status(c *gin.Context) {
	userID := c.Param("userId")
	token := c.Param("token")

	record, policy, err := h.verificationSvc.RecordForToken(c.Request.Context(), userID, token, "")
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status": gin.H{
			"recaptchaDone": record.Status.Recaptcha,
			"smsDone":       record.Status.SMS,
		},
		"requireRecaptcha": policy.RequireRecaptcha,
		"requireSMS":       policy.RequireSMS,
		"isCompleted":      record.Completed(),
		"expiresAt":        record.ExpiresAt,
	})
}

// VerifyRecaptcha checks the widget response with the provider and
// marks the captcha step done.
func (h *VerifyHandlers) VerifyRecaptcha(c *gin.Context) {
	var req RecaptchaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ok, err := h.captchaSvc.Verify(c.Request.Context(), req.Response, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Could not reach the captcha provider. Please try again."})
		return
	}
	if !ok {
		h.renderError(c, domain.ErrCaptchaRejected)
		return
	}

	record, ready, err := h.verificationSvc.MarkStep(c.Request.Context(), req.UserID, req.Token, domain.StepRecaptcha)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Captcha verified.",
		"status":          gin.H{"recaptchaDone": record.Status.Recaptcha, "smsDone": record.Status.SMS},
		"readyToFinalize": ready,
	})
}

// SendSMS issues a fresh SMS code to the submitted phone number
func (h *VerifyHandlers) SendSMS(c *gin.Context) {
	var req SMSSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	err := h.verificationSvc.RequestSMSCode(c.Request.Context(), req.UserID, req.Token, req.PhoneNumber, req.CountryCode)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent to your phone."})
}

// VerifySMS checks a submitted SMS code
func (h *VerifyHandlers) VerifySMS(c *gin.Context) {
	var req SMSVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ok, err := h.verificationSvc.VerifySMSCode(c.Request.Context(), req.UserID, req.Token, req.Code)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Incorrect verification code."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Phone verified."})
}

// Complete finalizes the record and applies the role grant
func (h *VerifyHandlers) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	grant, err := h.verificationSvc.Finalize(c.Request.Context(), req.UserID, req.GuildID, req.Token)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.granter.Grant(c.Request.Context(), grant); err != nil {
		// The record is committed as completed; the grant failure is an
		// operator problem, not something the user can retry into a
		// duplicate grant.
		log.Printf("web: role grant failed for user %s in guild %s: %v", req.UserID, req.GuildID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "You are verified, but the role could not be assigned. Please contact a server administrator.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification complete. You now have access to the server."})
}

func (h *VerifyHandlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoRecord), errors.Is(err, domain.ErrTokenMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired verification link. Use /verify to request a new one."})
	case errors.Is(err, domain.ErrRecordExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "This verification link has expired. Use /verify to request a new one."})
	case errors.Is(err, domain.ErrCaptchaRejected):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Captcha verification failed. Please try again."})
	case errors.Is(err, domain.ErrNoPendingCode):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Request a verification code first."})
	case errors.Is(err, domain.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "The verification code has expired. Request a new one."})
	case errors.Is(err, domain.ErrMaxAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Too many attempts. Restart verification with /verify."})
	case errors.Is(err, domain.ErrResendThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Please wait before requesting another code."})
	case errors.Is(err, domain.ErrNotComplete):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Required verification steps are not complete yet."})
	case errors.Is(err, domain.ErrNoPolicy):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "This server has no verification configuration. Ask an administrator to run /setup."})
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("web: store unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "The verification service is temporarily unavailable. Please try again."})
	default:
		log.Printf("web: unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong. Please try again later."})
	}
}

func errorPage(err error) (int, gin.H) {
	switch {
	case errors.Is(err, domain.ErrRecordExpired):
		return http.StatusBadRequest, gin.H{
			"message": "Verification link expired",
			"details": "This verification link has expired. Use the /verify command again to get a new one.",
		}
	case errors.Is(err, domain.ErrNoRecord), errors.Is(err, domain.ErrTokenMismatch):
		return http.StatusBadRequest, gin.H{
			"message": "Invalid verification link",
			"details": "This verification link is invalid or has been replaced. Use the /verify command again to get a new one.",
		}
	case errors.Is(err, domain.ErrNoPolicy):
		return http.StatusBadRequest, gin.H{
			"message": "Server not configured",
			"details": "This server has no verification configuration. Ask an administrator to run /setup.",
		}
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("web: store unavailable: %v", err)
		return http.StatusServiceUnavailable, gin.H{
			"message": "Service unavailable",
			"details": "The verification service is temporarily unavailable. Please try again shortly.",
		}
	default:
		log.Printf("web: unexpected error: %v", err)
		return http.StatusInternalServerError, gin.H{
			"message": "Verification error",
			"details": "Something went wrong while loading this page. Please try again later.",
		}
	}
}
