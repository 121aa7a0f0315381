package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionQuiz   = "quiz"
	actionAnswer = "answer"
	actionStop   = "stop_quiz"
	actionExpl   = "expl"
	actionMenu   = "menu"
	actionAdmin  = "admin"
)

// Quiz sub-actions.
const (
	quizCountry = "country"
	quizRegion  = "region"
	quizStart   = "start"
)

// Explanation sub-actions.
const (
	explShow = "show"
	explAll  = "all"
)

// Admin sub-actions.
const (
	adminStats  = "stats"
	adminExport = "export"
	adminReload = "reload"
	adminTime   = "time"
	adminMenu   = "menu"
)

// scopeAll marks "no filter" in callback payloads.
const scopeAll = "all"

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
	}
}

// buildCountryCallback builds callback data for picking a country.
func buildCountryCallback(country string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizCountry, country},
	}.encode()
}

// buildRegionCallback builds callback data for picking a region.
func buildRegionCallback(country, region string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizRegion, country, region},
	}.encode()
}

// buildStartCallback builds callback data for starting a session.
func buildStartCallback(country, region string, count int) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart, country, region, strconv.Itoa(count)},
	}.encode()
}

// buildAnswerCallback builds callback data for answering the question at
// the given index with the given option key.
func buildAnswerCallback(index int, key string) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{strconv.Itoa(index), key},
	}.encode()
}

// buildExplanationCallback builds callback data for showing one explanation.
func buildExplanationCallback(index int) string {
	return callbackData{
		Action: actionExpl,
		Params: []string{explShow, strconv.Itoa(index)},
	}.encode()
}

// buildAllExplanationsCallback builds callback data for the full explanation list.
func buildAllExplanationsCallback() string {
	return callbackData{
		Action: actionExpl,
		Params: []string{explAll},
	}.encode()
}

// buildAdminCallback builds callback data for admin panel actions.
func buildAdminCallback(subAction string, value ...string) string {
	params := []string{subAction}
	params = append(params, value...)
	return callbackData{
		Action: actionAdmin,
		Params: params,
	}.encode()
}
