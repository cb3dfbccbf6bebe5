// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package admin implements the administrative action engine: the validated,
// two-phase (check then apply) operations one user performs on another.
package admin

// Action tags the administrative operations the engine accepts.
type Action string

// The action catalogue.
const (
	ActionInviteFriend  Action = "invite_friend"
	ActionFriendAccept  Action = "friend_accept"
	ActionFriendReject  Action = "friend_reject"
	ActionRemoveFriend  Action = "remove_friend"
	ActionIgnoreUser    Action = "ignore_user"
	ActionUnignoreUser  Action = "unignore_user"
	ActionReportUser    Action = "report_user"
	ActionWarnUser      Action = "warn_user"
	ActionMuteUser      Action = "mute_user"
	ActionUnmuteUser    Action = "unmute_user"
	ActionBanUser       Action = "ban_user"
	ActionUnbanUser     Action = "unban_user"
	ActionRoomInvite    Action = "room_invite"
	ActionRoomKick      Action = "room_kick"
	ActionTeleport      Action = "teleport_to_user"
	ActionAssignMod     Action = "assign_moderator"
	ActionWithdrawMod   Action = "withdraw_moderator"
	ActionAssignAdmin   Action = "assign_administrator"
	ActionWithdrawAdmin Action = "withdraw_administrator"
	ActionAssignAreaMgr Action = "assign_area_manager"
	ActionRevokeAreaMgr Action = "withdraw_area_manager"
	ActionSetMusic      Action = "set_area_music"
)

// RejectReason classifies why a structurally valid action was refused.
// Rejections are surfaced to the acting session as data, never as errors.
type RejectReason string

// Reject reasons.
const (
	// ReasonNone means the action was applied.
	ReasonNone RejectReason = ""

	// ReasonNoPermission means a permission or authority precondition failed.
	ReasonNoPermission RejectReason = "no_permission"

	// ReasonIllegalAction means the action is inapplicable given current
	// relation or role state (e.g. muting an already muted user).
	ReasonIllegalAction RejectReason = "illegal_action"
)

// Result reports the outcome of one administrative action.
type Result struct {
	Action Action
	OK     bool
	Reason RejectReason
}

// applied is the success result for an action.
func applied(action Action) Result {
	return Result{Action: action, OK: true}
}

// rejected is a refusal result for an action.
func rejected(action Action, reason RejectReason) Result {
	return Result{Action: action, Reason: reason}
}
