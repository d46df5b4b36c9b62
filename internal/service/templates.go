package service

import (
	"math/rand"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

const defaultRules = "Be respectful. No personal info sharing. Listen actively. Have fun!"

type roomTemplate struct {
	Type            domain.RoomType
	Title           string
	MaxParticipants int64
	DurationMinutes int64
	IsPremium       bool
	Prompt          string // empty means drawn from a prompt list at creation
}

var roomTemplates = []roomTemplate{
	{Type: domain.TypeQuickChat, Title: "Quick Chat", MaxParticipants: 2, DurationMinutes: 5,
		Prompt: "Have a genuine 5-minute conversation with a stranger. No pressure, just be yourself."},
	{Type: domain.TypeGroupPrompt, Title: "Group Prompt", MaxParticipants: 5, DurationMinutes: 10},
	{Type: domain.TypeConfession, Title: "Confession Room", MaxParticipants: 6, DurationMinutes: 3,
		Prompt: "Share something anonymously. No judgement here."},
	{Type: domain.TypeTaskCollab, Title: "Two Strangers, One Task", MaxParticipants: 2, DurationMinutes: 8},
	{Type: domain.TypeListeningCircle, Title: "Listening Circle", MaxParticipants: 4, DurationMinutes: 7,
		Prompt: "One person shares, others listen and support with reactions."},
}

var groupPrompts = []string{
	"What's something you believed as a kid that turned out to be hilariously wrong?",
	"If you could have dinner with any person (alive or dead), who would it be and why?",
	"What's the best piece of advice you've ever received?",
	"Describe your perfect day from morning to night.",
	"What's a skill you wish you had learned earlier in life?",
	"If you could live in any era, which would you choose?",
	"What's the most spontaneous thing you've ever done?",
	"What does 'home' mean to you?",
}

var taskPrompts = []string{
	"Write a 4-line poem together — each person writes 2 lines alternately.",
	"Come up with a name and concept for a fictional café together.",
	"Create a short story where each person writes one sentence at a time.",
	"Design your dream treehouse together — describe what it would have.",
	"Plan a perfect road trip itinerary together in 8 minutes.",
}

func (t roomTemplate) instantiate() *domain.Room {
	prompt := t.Prompt
	switch t.Type {
	case domain.TypeGroupPrompt:
		prompt = groupPrompts[rand.Intn(len(groupPrompts))]
	case domain.TypeTaskCollab:
		prompt = taskPrompts[rand.Intn(len(taskPrompts))]
	}

	room := &domain.Room{
		Type:            t.Type,
		Title:           t.Title,
		Rules:           defaultRules,
		Status:          domain.StatusWaiting,
		MaxParticipants: t.MaxParticipants,
		DurationMinutes: t.DurationMinutes,
		IsPremium:       t.IsPremium,
	}
	if prompt != "" {
		room.Prompt = &prompt
	}
	return room
}
