package model

import (
	"fmt"
	"time"

	"github.com/cg505/ocflib/internal/account"
)

// PendingRequest is the durable projection of a NewAccountRequest that
// accrued warnings and was submitted for staff review. The row exists
// from submission until staff approve or reject it.
type PendingRequest struct {
	ID                uint   `gorm:"primarykey"`
	Username          string `gorm:"column:user_name;uniqueIndex;size:255;not null"`
	RealName          string `gorm:"size:255;not null"`
	IsGroup           bool   `gorm:"not null"`
	CalNetUID         int    `gorm:"column:calnet_uid"`
	CalLinkOID        int    `gorm:"column:callink_oid"`
	Email             string `gorm:"size:255;not null"`
	EncryptedPassword []byte `gorm:"type:varbinary(512);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PendingRequest) TableName() string { return "request" }

func (r PendingRequest) String() string {
	kind := "individual"
	if r.IsGroup {
		kind = "group"
	}
	return fmt.Sprintf("%s (%s)", r.Username, kind)
}

// PendingRequestFromRequest builds the stored row for a request. Field
// mapping is explicit so a shape change on either side breaks the build
// instead of silently dropping data.
func PendingRequestFromRequest(req account.NewAccountRequest) *PendingRequest {
	return &PendingRequest{
		ID:                GenerateID(),
		Username:          req.Username,
		RealName:          req.RealName,
		IsGroup:           req.IsGroup,
		CalNetUID:         req.CalNetUID,
		CalLinkOID:        req.CalLinkOID,
		Email:             req.Email,
		EncryptedPassword: req.EncryptedPassword,
	}
}

// ToRequest reconstructs the request this row was built from. The caller
// chooses the warnings mode for the re-submission; the approve path uses
// WarningsCreate since a human already reviewed the warnings.
func (r *PendingRequest) ToRequest(mode account.HandleWarnings) account.NewAccountRequest {
	return account.NewAccountRequest{
		Username:          r.Username,
		RealName:          r.RealName,
		IsGroup:           r.IsGroup,
		CalNetUID:         r.CalNetUID,
		CalLinkOID:        r.CalLinkOID,
		Email:             r.Email,
		EncryptedPassword: r.EncryptedPassword,
		HandleWarnings:    mode,
	}
}
