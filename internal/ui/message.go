package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageLoaded MsgKind = iota
	MsgFillDone
	MsgSuggestTick
	MsgSuggestions
	MsgDetailLoaded
	MsgReaction
	MsgProgressUpdate
	MsgUploadComplete
)

type pageLoaded struct {
	snap tasks.Snapshot
	err  error
}

type fillDone struct {
	res tasks.FillResult
	err error
}

type suggestTick struct {
	ticket uint64
	text   string
}

type suggestions struct {
	ticket uint64
	items  []tasks.Suggestion
	err    error
}

type detailLoaded struct {
	detail *models.PhotoDetail
	err    error
}

type reaction struct {
	like     *models.LikeResult
	favorite *models.FavoriteResult
	err      error
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(snap tasks.Snapshot, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: pageLoaded{snap, err}}
}

// fillDoneMsg is the constructor for [MsgFillDone]
func fillDoneMsg(res tasks.FillResult, err error) Msg {
	return Msg{kind: MsgFillDone, data: fillDone{res, err}}
}

// suggestTickMsg is the constructor for [MsgSuggestTick]
func suggestTickMsg(ticket uint64, text string) Msg {
	return Msg{kind: MsgSuggestTick, data: suggestTick{ticket, text}}
}

// suggestionsMsg is the constructor for [MsgSuggestions]
func suggestionsMsg(ticket uint64, items []tasks.Suggestion, err error) Msg {
	return Msg{kind: MsgSuggestions, data: suggestions{ticket, items, err}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(detail *models.PhotoDetail, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailLoaded{detail, err}}
}

// reactionMsg is the constructor for [MsgReaction]
func reactionMsg(r reaction) Msg {
	return Msg{kind: MsgReaction, data: r}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(summary tasks.UploadSummary) Msg {
	return Msg{kind: MsgUploadComplete, data: summary}
}
