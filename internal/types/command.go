package types

// CommandID names one itinerary-editing action. The set is closed: every value
// the assistant can dispatch on is declared here and described by an entry in
// the command catalog.
type CommandID string

const (
	CommandUnknown CommandID = "unknown"

	CommandCreateItinerary       CommandID = "create_itinerary"
	CommandUpdateTripName        CommandID = "update_trip_name"
	CommandUpdateMembers         CommandID = "update_members"
	CommandUpdateStartDate       CommandID = "update_start_date"
	CommandUpdateEndDate         CommandID = "update_end_date"
	CommandSwapDay               CommandID = "swap_day"
	CommandAddDayAfter           CommandID = "add_new_day_after_ith"
	CommandDeleteDayRange        CommandID = "delete_range_of_days"
	CommandAddDestination        CommandID = "add_new_destination"
	CommandConfirmAddDestination CommandID = "confirm_add_new_destination"
	CommandDeleteCurrentDay      CommandID = "delete_current_day"
	CommandDeleteAllDays         CommandID = "delete_all_days"
	CommandDeleteCurrentPlan     CommandID = "delete_current_plan"
	CommandDeleteSavedPlan       CommandID = "delete_saved_plan_ith"
	CommandFindRouteOfPair       CommandID = "find_route_of_pair_ith"
	CommandViewAllDays           CommandID = "view_all_days"
	CommandExtendMapView         CommandID = "extend_map_view"
	CommandCollapseMapView       CommandID = "collapse_map_view"
)

// CommandDefinition is one catalog entry: the identifier, the canonical natural
// language paraphrase used as a classification target, and the localized
// response templates the caller renders for terminal outcomes.
type CommandDefinition struct {
	ID                CommandID `json:"name"`
	Paraphrase        string    `json:"natural_expression"`
	ResponseSuccessEN string    `json:"response_success_en"`
	ResponseSuccessVI string    `json:"response_success_vi"`
	ResponseErrorEN   string    `json:"response_error_en"`
	ResponseErrorVI   string    `json:"response_error_vi"`
}

// CommandOutcome is the terminal state of one processed instruction.
type CommandOutcome string

const (
	OutcomeSuccess   CommandOutcome = "success"
	OutcomeAmbiguous CommandOutcome = "ambiguous"
	OutcomeError     CommandOutcome = "error"
	OutcomeNoCommand CommandOutcome = "no_command"
)

// CommandResult carries everything a caller needs to apply an instruction:
// the classified command, the mutated itinerary snapshot (when the action
// edits it), a command-specific payload, and both localized response
// templates selected from the catalog.
type CommandResult struct {
	Command    CommandID      `json:"command"`
	Outcome    CommandOutcome `json:"outcome"`
	Itinerary  *Itinerary     `json:"itinerary,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	ResponseEN string         `json:"response_en"`
	ResponseVI string         `json:"response_vi"`
}
