// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errs defines the stable error taxonomy surfaced over the
// socialvm RPC surface. Every execute handler fails with exactly one of
// these kinds; the kind string is what clients match on, the Go value is
// what callers can compare with errors.Is.
package errs

// Error is a taxonomy error: a stable Kind string plus a human message.
type Error struct {
	kind string
	msg  string
}

func New(kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the stable taxonomy string (e.g. "PostDeleted").
func (e *Error) Kind() string { return e.kind }

// Is lets errors.Is(err, errs.PostDeleted) match by kind rather than
// pointer identity, so wrapped errors still compare correctly.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

var (
	NotTribeMember        = New("NotTribeMember", "caller is not an active member of the tribe")
	EmptyMetadata         = New("EmptyMetadata", "metadata must not be empty")
	InvalidParentPost     = New("InvalidParentPost", "parent post does not exist")
	PostDeleted           = New("PostDeleted", "post has been deleted")
	InvalidEncryptionKey  = New("InvalidEncryptionKey", "encryption key hash must not be empty")
	CannotInteractWithOwn = New("CannotInteractWithOwn", "caller cannot interact with their own post")
	AlreadyReported       = New("AlreadyReported", "caller already reported this post")
	NotPostCreator        = New("NotPostCreator", "caller is not the post creator")
	OnCooldown            = New("OnCooldown", "post type is still on cooldown")
	BatchTooLarge         = New("BatchTooLarge", "batch exceeds the maximum batch size")
	BatchOnCooldown       = New("BatchOnCooldown", "batch posting is still on cooldown")
	Paused                = New("Paused", "module is paused")
	NotRateLimitManager   = New("NotRateLimitManager", "caller does not hold the rate limit manager role")
	MissingRole           = New("MissingRole", "caller is not an admin of the given role")
	CannotRenounce        = New("CannotRenounce", "caller does not hold the role being renounced")
	Banned                = New("Banned", "address is banned from this tribe")
	AlreadyMember         = New("AlreadyMember", "address already has pending or active membership")
	InvalidInviteCode     = New("InvalidInviteCode", "invite code does not exist")
	InviteCodeExpired     = New("InviteCodeExpired", "invite code has expired")
	InviteCodeExhausted   = New("InviteCodeExhausted", "invite code has reached its use limit")
	InviteCodeRevoked     = New("InviteCodeRevoked", "invite code has been revoked")
	TribeNotMergeable     = New("TribeNotMergeable", "tribe is not marked mergeable")
	MergeAlreadyRequested = New("MergeAlreadyRequested", "a merge request already exists for this pair")
	MergeNotApproved      = New("MergeNotApproved", "merge request has not been approved by the target admins")
	NotFound              = New("NotFound", "resource not found")
	Unauthorized          = New("Unauthorized", "caller is not authorized to perform this action")
	InvalidUsername       = New("InvalidUsername", "username must be 3-32 characters of letters, digits, underscore or hyphen")
	UsernameTaken         = New("UsernameTaken", "username is already registered")

	// CodeExists is named by spec.md §4.2's create_invite_code operation
	// text but missing from the §6 stable-string list; kept as part of
	// the taxonomy per the operation-level description.
	CodeExists = New("CodeExists", "an invite code with this value already exists for the tribe")
)
