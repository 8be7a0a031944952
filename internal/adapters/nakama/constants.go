package nakama

// RPC ids clients call through the Nakama runtime.
const (
	RpcSaveClub       = "matchday_save_club"
	RpcUpdateSettings = "matchday_update_settings"
	RpcPlayMatch      = "matchday_play_match"
	RpcScheduleSeason = "matchday_schedule_season"
	RpcStandings      = "matchday_standings"
)

// DefaultMaxTableLimit caps standings rows when no option overrides it.
const DefaultMaxTableLimit = 100

// gRPC status codes carried by runtime errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeAlreadyExists      = 6
	codeResourceExhausted  = 8
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
)
