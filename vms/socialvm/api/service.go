// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api provides the JSON-RPC surface for socialvm: one Args/Reply
// method pair per execute or query operation across the role manager,
// tribe controller, post minter, and profile NFT minter modules,
// grounded on vms/dexvm/api/service.go's gorilla/rpc service pattern.
package api

import (
	"net/http"

	"github.com/luxfi/vm/vms/socialvm/metrics"
	"github.com/luxfi/vm/vms/socialvm/post"
	"github.com/luxfi/vm/vms/socialvm/profilenft"
	"github.com/luxfi/vm/vms/socialvm/rolemgr"
	"github.com/luxfi/vm/vms/socialvm/tribe"
	"github.com/luxfi/vm/vms/socialvm/types"
)

type Address = types.Address

// Service exposes the four socialvm engines over one JSON-RPC namespace.
type Service struct {
	roles    *rolemgr.Engine
	profiles *profilenft.Engine
	tribes   *tribe.Engine
	posts    *post.Engine
	metrics  *metrics.Metrics
}

func NewService(roles *rolemgr.Engine, profiles *profilenft.Engine, tribes *tribe.Engine, posts *post.Engine, m *metrics.Metrics) *Service {
	return &Service{roles: roles, profiles: profiles, tribes: tribes, posts: posts, metrics: m}
}

// ============================================
// Health
// ============================================

type PingArgs struct{}

type PingReply struct {
	Success bool `json:"success"`
}

func (s *Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

// ============================================
// Role Manager
// ============================================

type HasRoleArgs struct {
	Role    string  `json:"role"`
	Address Address `json:"address"`
}

type HasRoleReply struct {
	HasRole bool `json:"hasRole"`
}

func (s *Service) HasRole(_ *http.Request, args *HasRoleArgs, reply *HasRoleReply) error {
	ok, err := s.roles.HasRole(args.Role, args.Address)
	if err != nil {
		return err
	}
	reply.HasRole = ok
	return nil
}

type GetRoleAdminArgs struct {
	Role string `json:"role"`
}

type GetRoleAdminReply struct {
	AdminRole string `json:"adminRole"`
}

func (s *Service) GetRoleAdmin(_ *http.Request, args *GetRoleAdminArgs, reply *GetRoleAdminReply) error {
	admin, err := s.roles.GetRoleAdmin(args.Role)
	if err != nil {
		return err
	}
	reply.AdminRole = admin
	return nil
}

type GetRoleMemberCountArgs struct {
	Role string `json:"role"`
}

type GetRoleMemberCountReply struct {
	Count uint64 `json:"count"`
}

func (s *Service) GetRoleMemberCount(_ *http.Request, args *GetRoleMemberCountArgs, reply *GetRoleMemberCountReply) error {
	count, err := s.roles.GetRoleMemberCount(args.Role)
	if err != nil {
		return err
	}
	reply.Count = count
	return nil
}

type GetRolesArgs struct {
	Address Address `json:"address"`
}

type GetRolesReply struct {
	Roles []string `json:"roles"`
}

func (s *Service) GetRoles(_ *http.Request, args *GetRolesArgs, reply *GetRolesReply) error {
	roles, err := s.roles.GetRoles(args.Address)
	if err != nil {
		return err
	}
	reply.Roles = roles
	return nil
}

type ListRoleMembersArgs struct {
	Role       string  `json:"role"`
	StartAfter Address `json:"startAfter"`
	Limit      uint32  `json:"limit"`
}

type ListRoleMembersReply struct {
	Members []Address `json:"members"`
}

func (s *Service) ListRoleMembers(_ *http.Request, args *ListRoleMembersArgs, reply *ListRoleMembersReply) error {
	members, err := s.roles.ListRoleMembers(args.Role, args.StartAfter, args.Limit)
	if err != nil {
		return err
	}
	reply.Members = members
	return nil
}

type HasAnyRoleArgs struct {
	Address Address  `json:"address"`
	Roles   []string `json:"roles"`
}

type HasAnyRoleReply struct {
	Result bool `json:"result"`
}

func (s *Service) HasAnyRole(_ *http.Request, args *HasAnyRoleArgs, reply *HasAnyRoleReply) error {
	ok, err := s.roles.HasAnyRole(args.Address, args.Roles)
	if err != nil {
		return err
	}
	reply.Result = ok
	return nil
}

type HasAllRolesArgs struct {
	Address Address  `json:"address"`
	Roles   []string `json:"roles"`
}

type HasAllRolesReply struct {
	Result bool `json:"result"`
}

func (s *Service) HasAllRoles(_ *http.Request, args *HasAllRolesArgs, reply *HasAllRolesReply) error {
	ok, err := s.roles.HasAllRoles(args.Address, args.Roles)
	if err != nil {
		return err
	}
	reply.Result = ok
	return nil
}

type GrantRoleArgs struct {
	Caller  Address `json:"caller"`
	Role    string  `json:"role"`
	Address Address `json:"address"`
}

type GrantRoleReply struct{}

func (s *Service) GrantRole(_ *http.Request, args *GrantRoleArgs, _ *GrantRoleReply) error {
	if err := s.roles.GrantRole(args.Caller, args.Role, args.Address); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RolesGranted.Inc()
	}
	return nil
}

type RevokeRoleArgs struct {
	Caller  Address `json:"caller"`
	Role    string  `json:"role"`
	Address Address `json:"address"`
}

type RevokeRoleReply struct{}

func (s *Service) RevokeRole(_ *http.Request, args *RevokeRoleArgs, _ *RevokeRoleReply) error {
	return s.roles.RevokeRole(args.Caller, args.Role, args.Address)
}

type RenounceRoleArgs struct {
	Caller  Address  `json:"caller"`
	Role    string   `json:"role"`
	Address *Address `json:"address,omitempty"`
}

type RenounceRoleReply struct{}

func (s *Service) RenounceRole(_ *http.Request, args *RenounceRoleArgs, _ *RenounceRoleReply) error {
	return s.roles.RenounceRole(args.Caller, args.Role, args.Address)
}

type SetRoleAdminArgs struct {
	Caller    Address `json:"caller"`
	Role      string  `json:"role"`
	AdminRole string  `json:"adminRole"`
}

type SetRoleAdminReply struct{}

func (s *Service) SetRoleAdmin(_ *http.Request, args *SetRoleAdminArgs, _ *SetRoleAdminReply) error {
	return s.roles.SetRoleAdmin(args.Caller, args.Role, args.AdminRole)
}

type AuthorizeFanAssignerArgs struct {
	Caller   Address `json:"caller"`
	Assigner Address `json:"assigner"`
}

type AuthorizeFanAssignerReply struct{}

func (s *Service) AuthorizeFanAssigner(_ *http.Request, args *AuthorizeFanAssignerArgs, _ *AuthorizeFanAssignerReply) error {
	return s.roles.AuthorizeFanAssigner(args.Caller, args.Assigner)
}

type AssignFanRoleArgs struct {
	Caller Address `json:"caller"`
	User   Address `json:"user"`
}

type AssignFanRoleReply struct{}

func (s *Service) AssignFanRole(_ *http.Request, args *AssignFanRoleArgs, _ *AssignFanRoleReply) error {
	return s.roles.AssignFanRole(args.Caller, args.User)
}

type RolePauseArgs struct {
	Caller Address `json:"caller"`
}

type RolePauseReply struct{}

func (s *Service) PauseRoles(_ *http.Request, args *RolePauseArgs, _ *RolePauseReply) error {
	return s.roles.Pause(args.Caller)
}

func (s *Service) UnpauseRoles(_ *http.Request, args *RolePauseArgs, _ *RolePauseReply) error {
	return s.roles.Unpause(args.Caller)
}

// ============================================
// Tribe Controller
// ============================================

type CreateTribeArgs struct {
	Creator         Address                `json:"creator"`
	Name            string                 `json:"name"`
	Metadata        string                 `json:"metadata"`
	JoinType        tribe.JoinType         `json:"joinType"`
	EntryFee        uint64                 `json:"entryFee"`
	NFTRequirements []tribe.NFTRequirement `json:"nftRequirements,omitempty"`
	IsMergeable     bool                   `json:"isMergeable"`
}

type CreateTribeReply struct {
	Tribe *tribe.Tribe `json:"tribe"`
}

func (s *Service) CreateTribe(_ *http.Request, args *CreateTribeArgs, reply *CreateTribeReply) error {
	t, err := s.tribes.CreateTribe(args.Creator, args.Name, args.Metadata, args.JoinType, args.EntryFee, args.NFTRequirements, args.IsMergeable)
	if err != nil {
		return err
	}
	reply.Tribe = t
	return nil
}

type UpdateTribeConfigArgs struct {
	Caller   Address `json:"caller"`
	TribeID  uint64  `json:"tribeId"`
	Name     *string `json:"name,omitempty"`
	Metadata *string `json:"metadata,omitempty"`
	EntryFee *uint64 `json:"entryFee,omitempty"`
}

type UpdateTribeConfigReply struct{}

func (s *Service) UpdateTribeConfig(_ *http.Request, args *UpdateTribeConfigArgs, _ *UpdateTribeConfigReply) error {
	return s.tribes.UpdateTribeConfig(args.Caller, args.TribeID, args.Name, args.Metadata, args.EntryFee)
}

type GetTribeConfigArgs struct {
	TribeID uint64 `json:"tribeId"`
}

type GetTribeConfigReply struct {
	Tribe *tribe.Tribe `json:"tribe"`
}

func (s *Service) GetTribeConfig(_ *http.Request, args *GetTribeConfigArgs, reply *GetTribeConfigReply) error {
	t, err := s.tribes.GetTribeConfigView(args.TribeID)
	if err != nil {
		return err
	}
	reply.Tribe = t
	return nil
}

type GetMemberStatusArgs struct {
	TribeID uint64  `json:"tribeId"`
	Address Address `json:"address"`
}

type GetMemberStatusReply struct {
	Status tribe.MemberStatus `json:"status"`
}

func (s *Service) GetMemberStatus(_ *http.Request, args *GetMemberStatusArgs, reply *GetMemberStatusReply) error {
	reply.Status = s.tribes.GetMemberStatus(args.TribeID, args.Address)
	return nil
}

type JoinTribeArgs struct {
	Caller  Address `json:"caller"`
	TribeID uint64  `json:"tribeId"`
}

type JoinTribeReply struct{}

func (s *Service) JoinTribe(_ *http.Request, args *JoinTribeArgs, _ *JoinTribeReply) error {
	if err := s.tribes.JoinTribe(args.Caller, args.TribeID); err != nil {
		return err
	}
	s.recordTribeJoin(args.TribeID)
	return nil
}

// recordTribeJoin looks up the tribe's join type for the per-type
// socialvm_tribe_joins_total label; best-effort, never fails the request.
func (s *Service) recordTribeJoin(tribeID uint64) {
	if s.metrics == nil {
		return
	}
	t, err := s.tribes.GetTribeConfigView(tribeID)
	if err != nil {
		return
	}
	s.metrics.IncTribeJoin(string(t.JoinType))
}

func (s *Service) RequestToJoin(_ *http.Request, args *JoinTribeArgs, _ *JoinTribeReply) error {
	return s.tribes.RequestToJoin(args.Caller, args.TribeID)
}

type MemberActionArgs struct {
	Caller  Address `json:"caller"`
	TribeID uint64  `json:"tribeId"`
	Address Address `json:"address"`
}

type MemberActionReply struct{}

func (s *Service) ApproveMember(_ *http.Request, args *MemberActionArgs, _ *MemberActionReply) error {
	return s.tribes.ApproveMember(args.Caller, args.TribeID, args.Address)
}

func (s *Service) RejectMember(_ *http.Request, args *MemberActionArgs, _ *MemberActionReply) error {
	return s.tribes.RejectMember(args.Caller, args.TribeID, args.Address)
}

func (s *Service) BanMember(_ *http.Request, args *MemberActionArgs, _ *MemberActionReply) error {
	return s.tribes.BanMember(args.Caller, args.TribeID, args.Address)
}

type CreateInviteCodeArgs struct {
	Caller    Address `json:"caller"`
	TribeID   uint64  `json:"tribeId"`
	Code      string  `json:"code"`
	MaxUses   uint32  `json:"maxUses"`
	ExpiresAt int64   `json:"expiresAt"`
}

type CreateInviteCodeReply struct{}

func (s *Service) CreateInviteCode(_ *http.Request, args *CreateInviteCodeArgs, _ *CreateInviteCodeReply) error {
	return s.tribes.CreateInviteCode(args.Caller, args.TribeID, args.Code, args.MaxUses, args.ExpiresAt)
}

type RevokeInviteCodeArgs struct {
	Caller  Address `json:"caller"`
	TribeID uint64  `json:"tribeId"`
	Code    string  `json:"code"`
}

type RevokeInviteCodeReply struct{}

func (s *Service) RevokeInviteCode(_ *http.Request, args *RevokeInviteCodeArgs, _ *RevokeInviteCodeReply) error {
	return s.tribes.RevokeInviteCode(args.Caller, args.TribeID, args.Code)
}

type JoinTribeWithCodeArgs struct {
	Caller  Address `json:"caller"`
	TribeID uint64  `json:"tribeId"`
	Code    string  `json:"code"`
}

type JoinTribeWithCodeReply struct{}

func (s *Service) JoinTribeWithCode(_ *http.Request, args *JoinTribeWithCodeArgs, _ *JoinTribeWithCodeReply) error {
	if err := s.tribes.JoinTribeWithCode(args.Caller, args.TribeID, args.Code); err != nil {
		return err
	}
	s.recordTribeJoin(args.TribeID)
	return nil
}

type GetInviteCodeStatusArgs struct {
	TribeID uint64 `json:"tribeId"`
	Code    string `json:"code"`
}

type GetInviteCodeStatusReply struct {
	Status tribe.InviteCodeStatusView `json:"status"`
}

func (s *Service) GetInviteCodeStatus(_ *http.Request, args *GetInviteCodeStatusArgs, reply *GetInviteCodeStatusReply) error {
	view, err := s.tribes.GetInviteCodeStatus(args.TribeID, args.Code)
	if err != nil {
		return err
	}
	reply.Status = view
	return nil
}

type MergeArgs struct {
	Caller   Address `json:"caller"`
	SourceID uint64  `json:"sourceId"`
	TargetID uint64  `json:"targetId"`
}

type MergeReply struct{}

func (s *Service) RequestTribeMerge(_ *http.Request, args *MergeArgs, _ *MergeReply) error {
	return s.tribes.RequestTribeMerge(args.Caller, args.SourceID, args.TargetID)
}

func (s *Service) ApproveTribeMerge(_ *http.Request, args *MergeArgs, _ *MergeReply) error {
	return s.tribes.ApproveTribeMerge(args.Caller, args.SourceID, args.TargetID)
}

func (s *Service) CancelMergeRequest(_ *http.Request, args *MergeArgs, _ *MergeReply) error {
	return s.tribes.CancelMergeRequest(args.Caller, args.SourceID, args.TargetID)
}

func (s *Service) ExecuteTribeMerge(_ *http.Request, args *MergeArgs, _ *MergeReply) error {
	if err := s.tribes.ExecuteTribeMerge(args.Caller, args.SourceID, args.TargetID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.MergesExecuted.Inc()
	}
	return nil
}

// ============================================
// Post Minter
// ============================================

type CreatePostArgs struct {
	Caller              Address       `json:"caller"`
	TribeID             uint64        `json:"tribeId"`
	Metadata            string        `json:"metadata"`
	PostType            post.PostType `json:"postType"`
	IsGated             bool          `json:"isGated"`
	CollectibleContract string        `json:"collectibleContract,omitempty"`
	CollectibleID       uint64        `json:"collectibleId,omitempty"`
}

type CreatePostReply struct {
	Post *post.Post `json:"post"`
}

func (s *Service) CreatePost(_ *http.Request, args *CreatePostArgs, reply *CreatePostReply) error {
	p, err := s.posts.CreatePost(args.Caller, args.TribeID, args.Metadata, args.PostType, args.IsGated, args.CollectibleContract, args.CollectibleID)
	if err != nil {
		return err
	}
	reply.Post = p
	if s.metrics != nil {
		s.metrics.PostsCreated.Inc()
	}
	return nil
}

type CreateReplyArgs struct {
	Caller       Address       `json:"caller"`
	ParentPostID uint64        `json:"parentPostId"`
	Metadata     string        `json:"metadata"`
	PostType     post.PostType `json:"postType"`
}

type CreateReplyReply struct {
	Post *post.Post `json:"post"`
}

func (s *Service) CreateReply(_ *http.Request, args *CreateReplyArgs, reply *CreateReplyReply) error {
	p, err := s.posts.CreateReply(args.Caller, args.ParentPostID, args.Metadata, args.PostType)
	if err != nil {
		return err
	}
	reply.Post = p
	if s.metrics != nil {
		s.metrics.PostsCreated.Inc()
	}
	return nil
}

type CreateEncryptedPostArgs struct {
	Caller            Address `json:"caller"`
	TribeID           uint64  `json:"tribeId"`
	Metadata          string  `json:"metadata"`
	EncryptionKeyHash string  `json:"encryptionKeyHash"`
	AccessSigner      Address `json:"accessSigner"`
}

type CreateEncryptedPostReply struct {
	Post *post.Post `json:"post"`
}

func (s *Service) CreateEncryptedPost(_ *http.Request, args *CreateEncryptedPostArgs, reply *CreateEncryptedPostReply) error {
	p, err := s.posts.CreateEncryptedPost(args.Caller, args.TribeID, args.Metadata, args.EncryptionKeyHash, args.AccessSigner)
	if err != nil {
		return err
	}
	reply.Post = p
	if s.metrics != nil {
		s.metrics.PostsCreated.Inc()
	}
	return nil
}

type CreateBatchPostsArgs struct {
	Caller Address              `json:"caller"`
	Items  []post.BatchPostItem `json:"items"`
}

type CreateBatchPostsReply struct {
	Posts []*post.Post `json:"posts"`
}

func (s *Service) CreateBatchPosts(_ *http.Request, args *CreateBatchPostsArgs, reply *CreateBatchPostsReply) error {
	posts, err := s.posts.CreateBatchPosts(args.Caller, args.Items)
	if err != nil {
		return err
	}
	reply.Posts = posts
	if s.metrics != nil {
		for range posts {
			s.metrics.PostsCreated.Inc()
		}
	}
	return nil
}

type InteractWithPostArgs struct {
	Caller Address             `json:"caller"`
	PostID uint64              `json:"postId"`
	Kind   post.InteractionType `json:"kind"`
}

type InteractWithPostReply struct{}

func (s *Service) InteractWithPost(_ *http.Request, args *InteractWithPostArgs, _ *InteractWithPostReply) error {
	return s.posts.InteractWithPost(args.Caller, args.PostID, args.Kind)
}

type ReportPostArgs struct {
	Caller Address `json:"caller"`
	PostID uint64  `json:"postId"`
	Reason string  `json:"reason"`
}

type ReportPostReply struct{}

func (s *Service) ReportPost(_ *http.Request, args *ReportPostArgs, _ *ReportPostReply) error {
	return s.posts.ReportPost(args.Caller, args.PostID, args.Reason)
}

type AuthorizeViewerArgs struct {
	Caller Address `json:"caller"`
	PostID uint64  `json:"postId"`
	Viewer Address `json:"viewer"`
}

type AuthorizeViewerReply struct{}

func (s *Service) AuthorizeViewer(_ *http.Request, args *AuthorizeViewerArgs, _ *AuthorizeViewerReply) error {
	return s.posts.AuthorizeViewer(args.Caller, args.PostID, args.Viewer)
}

type DeletePostArgs struct {
	Caller Address `json:"caller"`
	PostID uint64  `json:"postId"`
}

type DeletePostReply struct{}

func (s *Service) DeletePost(_ *http.Request, args *DeletePostArgs, _ *DeletePostReply) error {
	return s.posts.DeletePost(args.Caller, args.PostID)
}

type UpdatePostArgs struct {
	Caller   Address `json:"caller"`
	PostID   uint64  `json:"postId"`
	Metadata string  `json:"metadata"`
}

type UpdatePostReply struct{}

func (s *Service) UpdatePost(_ *http.Request, args *UpdatePostArgs, _ *UpdatePostReply) error {
	return s.posts.UpdatePost(args.Caller, args.PostID, args.Metadata)
}

type CanViewPostArgs struct {
	PostID    uint64  `json:"postId"`
	Viewer    Address `json:"viewer"`
	Signature []byte  `json:"signature,omitempty"`
}

type CanViewPostReply struct {
	CanView bool `json:"canView"`
}

func (s *Service) CanViewPost(_ *http.Request, args *CanViewPostArgs, reply *CanViewPostReply) error {
	ok, err := s.posts.CanViewPost(args.PostID, args.Viewer, args.Signature)
	if err != nil {
		return err
	}
	reply.CanView = ok
	return nil
}

type GetPostDecryptionKeyArgs struct {
	PostID    uint64  `json:"postId"`
	Viewer    Address `json:"viewer"`
	Signature []byte  `json:"signature,omitempty"`
}

type GetPostDecryptionKeyReply struct {
	Key string `json:"key"`
}

func (s *Service) GetPostDecryptionKey(_ *http.Request, args *GetPostDecryptionKeyArgs, reply *GetPostDecryptionKeyReply) error {
	reply.Key = s.posts.GetPostDecryptionKey(args.PostID, args.Viewer, args.Signature)
	return nil
}

type CreateSignatureGatedPostArgs struct {
	Caller              Address `json:"caller"`
	TribeID             uint64  `json:"tribeId"`
	Metadata            string  `json:"metadata"`
	EncryptionKeyHash   string  `json:"encryptionKeyHash"`
	AccessSigner        Address `json:"accessSigner"`
	CollectibleContract string  `json:"collectibleContract"`
	CollectibleID       uint64  `json:"collectibleId"`
}

type CreateSignatureGatedPostReply struct {
	Post *post.Post `json:"post"`
}

func (s *Service) CreateSignatureGatedPost(_ *http.Request, args *CreateSignatureGatedPostArgs, reply *CreateSignatureGatedPostReply) error {
	p, err := s.posts.CreateSignatureGatedPost(args.Caller, args.TribeID, args.Metadata, args.EncryptionKeyHash, args.AccessSigner, args.CollectibleContract, args.CollectibleID)
	if err != nil {
		return err
	}
	reply.Post = p
	return nil
}

type SetTribeEncryptionKeyArgs struct {
	Caller  Address `json:"caller"`
	TribeID uint64  `json:"tribeId"`
	Key     string  `json:"key"`
}

type SetTribeEncryptionKeyReply struct{}

func (s *Service) SetTribeEncryptionKey(_ *http.Request, args *SetTribeEncryptionKeyArgs, _ *SetTribeEncryptionKeyReply) error {
	return s.posts.SetTribeEncryptionKey(args.Caller, args.TribeID, args.Key)
}

type GetTribeEncryptionKeyArgs struct {
	TribeID uint64 `json:"tribeId"`
}

type GetTribeEncryptionKeyReply struct {
	Key string `json:"key"`
}

func (s *Service) GetTribeEncryptionKey(_ *http.Request, args *GetTribeEncryptionKeyArgs, reply *GetTribeEncryptionKeyReply) error {
	key, err := s.posts.GetTribeEncryptionKey(args.TribeID)
	if err != nil {
		return err
	}
	reply.Key = key
	return nil
}

type PostPageReply struct {
	Posts []uint64 `json:"posts"`
	Total uint64   `json:"total"`
}

type GetPostsByTribeArgs struct {
	TribeID uint64 `json:"tribeId"`
	Offset  uint64 `json:"offset"`
	Limit   uint64 `json:"limit"`
}

func (s *Service) GetPostsByTribe(_ *http.Request, args *GetPostsByTribeArgs, reply *PostPageReply) error {
	posts, total, err := s.posts.GetPostsByTribe(args.TribeID, args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Posts, reply.Total = posts, total
	return nil
}

type GetPostsByUserArgs struct {
	User   Address `json:"user"`
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
}

func (s *Service) GetPostsByUser(_ *http.Request, args *GetPostsByUserArgs, reply *PostPageReply) error {
	posts, total, err := s.posts.GetPostsByUser(args.User, args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Posts, reply.Total = posts, total
	return nil
}

type GetPostsByTribeAndUserArgs struct {
	TribeID uint64  `json:"tribeId"`
	User    Address `json:"user"`
	Offset  uint64  `json:"offset"`
	Limit   uint64  `json:"limit"`
}

func (s *Service) GetPostsByTribeAndUser(_ *http.Request, args *GetPostsByTribeAndUserArgs, reply *PostPageReply) error {
	posts, total, err := s.posts.GetPostsByTribeAndUser(args.TribeID, args.User, args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Posts, reply.Total = posts, total
	return nil
}

type GetFeedForUserArgs struct {
	User   Address `json:"user"`
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
}

func (s *Service) GetFeedForUser(_ *http.Request, args *GetFeedForUserArgs, reply *PostPageReply) error {
	posts, total, err := s.posts.GetFeedForUser(args.User, args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Posts, reply.Total = posts, total
	return nil
}

type GetPostArgs struct {
	PostID uint64 `json:"postId"`
}

type GetPostReply struct {
	Post *post.Post `json:"post"`
}

func (s *Service) GetPost(_ *http.Request, args *GetPostArgs, reply *GetPostReply) error {
	p, err := s.posts.GetPost(args.PostID)
	if err != nil {
		return err
	}
	reply.Post = p
	return nil
}

type GetPostRepliesArgs struct {
	ParentPostID uint64 `json:"parentPostId"`
}

type GetPostRepliesReply struct {
	Replies []uint64 `json:"replies"`
}

func (s *Service) GetPostReplies(_ *http.Request, args *GetPostRepliesArgs, reply *GetPostRepliesReply) error {
	replies, err := s.posts.GetPostReplies(args.ParentPostID)
	if err != nil {
		return err
	}
	reply.Replies = replies
	return nil
}

type SetPostTypeCooldownArgs struct {
	Caller          Address       `json:"caller"`
	PostType        post.PostType `json:"postType"`
	CooldownSeconds int64         `json:"cooldownSeconds"`
}

type SetPostTypeCooldownReply struct{}

func (s *Service) SetPostTypeCooldown(_ *http.Request, args *SetPostTypeCooldownArgs, _ *SetPostTypeCooldownReply) error {
	return s.posts.SetPostTypeCooldown(args.Caller, args.PostType, args.CooldownSeconds)
}

type SetBatchPostingLimitsArgs struct {
	Caller               Address `json:"caller"`
	MaxBatchSize         uint32  `json:"maxBatchSize"`
	BatchCooldownSeconds int64   `json:"batchCooldownSeconds"`
}

type SetBatchPostingLimitsReply struct{}

func (s *Service) SetBatchPostingLimits(_ *http.Request, args *SetBatchPostingLimitsArgs, _ *SetBatchPostingLimitsReply) error {
	return s.posts.SetBatchPostingLimits(args.Caller, args.MaxBatchSize, args.BatchCooldownSeconds)
}

type PauseArgs struct {
	Caller Address `json:"caller"`
}

type PauseReply struct{}

func (s *Service) PausePosts(_ *http.Request, args *PauseArgs, _ *PauseReply) error {
	return s.posts.Pause(args.Caller)
}

func (s *Service) UnpausePosts(_ *http.Request, args *PauseArgs, _ *PauseReply) error {
	return s.posts.Unpause(args.Caller)
}

// ============================================
// Profile NFT Minter
// ============================================

type MintProfileNFTArgs struct {
	Caller      Address `json:"caller"`
	MetadataURI string  `json:"metadataUri"`
}

type MintProfileNFTReply struct {
	Token *profilenft.Token `json:"token"`
}

func (s *Service) MintProfileNFT(_ *http.Request, args *MintProfileNFTArgs, reply *MintProfileNFTReply) error {
	t, err := s.profiles.MintProfileNFT(args.Caller, args.MetadataURI)
	if err != nil {
		return err
	}
	reply.Token = t
	return nil
}

type MintAuthorizedProfileArgs struct {
	Caller      Address `json:"caller"`
	Recipient   Address `json:"recipient"`
	MetadataURI string  `json:"metadataUri"`
}

type MintAuthorizedProfileReply struct {
	Token *profilenft.Token `json:"token"`
}

func (s *Service) MintAuthorizedProfile(_ *http.Request, args *MintAuthorizedProfileArgs, reply *MintAuthorizedProfileReply) error {
	t, err := s.profiles.MintAuthorizedProfile(args.Caller, args.Recipient, args.MetadataURI)
	if err != nil {
		return err
	}
	reply.Token = t
	return nil
}

type UpdateProfileMetadataArgs struct {
	Caller      Address `json:"caller"`
	TokenID     string  `json:"tokenId"`
	MetadataURI string  `json:"metadataUri"`
}

type UpdateProfileMetadataReply struct{}

func (s *Service) UpdateProfileMetadata(_ *http.Request, args *UpdateProfileMetadataArgs, _ *UpdateProfileMetadataReply) error {
	return s.profiles.UpdateProfileMetadata(args.Caller, args.TokenID, args.MetadataURI)
}

type CreateProfileArgs struct {
	Caller      Address `json:"caller"`
	Username    string  `json:"username"`
	MetadataURI string  `json:"metadataUri"`
}

type CreateProfileReply struct {
	Token *profilenft.Token `json:"token"`
}

func (s *Service) CreateProfile(_ *http.Request, args *CreateProfileArgs, reply *CreateProfileReply) error {
	t, err := s.profiles.CreateProfile(args.Caller, args.Username, args.MetadataURI)
	if err != nil {
		return err
	}
	reply.Token = t
	return nil
}

type UsernameExistsArgs struct {
	Username string `json:"username"`
}

type UsernameExistsReply struct {
	Exists bool `json:"exists"`
}

func (s *Service) UsernameExists(_ *http.Request, args *UsernameExistsArgs, reply *UsernameExistsReply) error {
	exists, err := s.profiles.UsernameExists(args.Username)
	if err != nil {
		return err
	}
	reply.Exists = exists
	return nil
}

type GetTokenIdByUsernameArgs struct {
	Username string `json:"username"`
}

type GetTokenIdByUsernameReply struct {
	TokenID string `json:"tokenId"`
}

func (s *Service) GetTokenIdByUsername(_ *http.Request, args *GetTokenIdByUsernameArgs, reply *GetTokenIdByUsernameReply) error {
	tokenID, err := s.profiles.GetTokenIdByUsername(args.Username)
	if err != nil {
		return err
	}
	reply.TokenID = tokenID
	return nil
}

type BurnProfileNFTArgs struct {
	Caller  Address `json:"caller"`
	TokenID string  `json:"tokenId"`
}

type BurnProfileNFTReply struct{}

func (s *Service) BurnProfileNFT(_ *http.Request, args *BurnProfileNFTArgs, _ *BurnProfileNFTReply) error {
	return s.profiles.BurnProfileNFT(args.Caller, args.TokenID)
}

type OwnerOfArgs struct {
	TokenID string `json:"tokenId"`
}

type OwnerOfReply struct {
	Owner Address `json:"owner"`
}

func (s *Service) OwnerOf(_ *http.Request, args *OwnerOfArgs, reply *OwnerOfReply) error {
	owner, err := s.profiles.OwnerOf(args.TokenID)
	if err != nil {
		return err
	}
	reply.Owner = owner
	return nil
}

type NFTInfoArgs struct {
	TokenID string `json:"tokenId"`
}

type NFTInfoReply struct {
	Token *profilenft.Token `json:"token"`
}

func (s *Service) NFTInfo(_ *http.Request, args *NFTInfoArgs, reply *NFTInfoReply) error {
	t, err := s.profiles.NFTInfo(args.TokenID)
	if err != nil {
		return err
	}
	reply.Token = t
	return nil
}

type TokensArgs struct {
	Owner      Address `json:"owner"`
	StartAfter string  `json:"startAfter,omitempty"`
	Limit      uint32  `json:"limit"`
}

type TokensReply struct {
	TokenIDs []string `json:"tokenIds"`
}

func (s *Service) Tokens(_ *http.Request, args *TokensArgs, reply *TokensReply) error {
	ids, err := s.profiles.Tokens(args.Owner, args.StartAfter, args.Limit)
	if err != nil {
		return err
	}
	reply.TokenIDs = ids
	return nil
}

type OwnsArgs struct {
	Owner Address `json:"owner"`
}

type OwnsReply struct {
	Count uint64 `json:"count"`
}

func (s *Service) Owns(_ *http.Request, args *OwnsArgs, reply *OwnsReply) error {
	count, err := s.profiles.Owns(args.Owner)
	if err != nil {
		return err
	}
	reply.Count = count
	return nil
}
