package render

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	_ = message.Set(lang, keySprintStarted, plural.Selectf(1, "%d",
		plural.One, "Sprint started! You have %[1]d minute. Send your starting word count with `%[2]ssprint <count>`.",
		plural.Other, "Sprint started! You have %[1]d minutes. Send your starting word count with `%[2]ssprint <count>`.",
	))
	_ = message.Set(lang, keySprintTimeUp, plural.Selectf(1, "%d",
		plural.One, "Time is up! You have %[1]d minute to send your final word count with `%[2]ssprint <count>`.",
		plural.Other, "Time is up! You have %[1]d minutes to send your final word count with `%[2]ssprint <count>`.",
	))
	_ = message.Set(lang, keySprintathonStarted, plural.Selectf(1, "%d",
		plural.One, "Sprintathon started! It runs for %[1]d hour. Every sprint in this channel counts toward it.",
		plural.Other, "Sprintathon started! It runs for %[1]d hours. Every sprint in this channel counts toward it.",
	))

	message.SetString(lang, keySprintAlreadyActive, "A sprint is already running in this channel.")
	message.SetString(lang, keySprintNoneActive, "There is no sprint running in this channel.")
	message.SetString(lang, keySprintStopped, "Sprint cancelled. No results were recorded.")
	message.SetString(lang, keySprintResuming, "I was interrupted! Resuming the sprint in this channel.")
	message.SetString(lang, keySprintResultsHeader, "Sprint is done! Here are the results:")
	message.SetString(lang, keySprintResultsEmpty, "No one joined this round!")
	message.SetString(lang, keySprintBonus, "<@%s> takes first place and earns a %d word bonus for the sprintathon!")
	message.SetString(lang, keySprintFailed, "Something went wrong closing this sprint. I'll pick it back up after a restart.")

	message.SetString(lang, keySprintathonAlreadyActive, "A sprintathon is already running in this channel.")
	message.SetString(lang, keySprintathonNoneActive, "There is no sprintathon running in this channel.")
	message.SetString(lang, keySprintathonStopped, "Sprintathon cancelled. No results were recorded.")
	message.SetString(lang, keySprintathonResuming, "I was interrupted! Resuming the sprintathon in this channel.")
	message.SetString(lang, keySprintathonFinalHour, "One hour left in the sprintathon! Make it count.")
	message.SetString(lang, keySprintathonFinished, "And cut! The sprintathon is over. Final standings:")
	message.SetString(lang, keySprintathonFailed, "Something went wrong closing this sprintathon. I'll pick it back up after a restart.")

	message.SetString(lang, keyLeaderboardHeader, "Sprintathon leaderboard:")
	message.SetString(lang, keyLeaderboardEmpty, "No words recorded for this sprintathon yet.")
	message.SetString(lang, keyLeaderboardNone, "No sprintathon has run in this channel yet.")
	_ = message.Set(lang, keyStandingLine, plural.Selectf(3, "%d",
		plural.One, "    %[1]s: <@%[2]s> - %[3]d word [avg %[4]d wpm]",
		plural.Other, "    %[1]s: <@%[2]s> - %[3]d words [avg %[4]d wpm]",
	))

	message.SetString(lang, keyNoticeMissingCheckpoint, "<@%s> I need both a starting and a finishing word count, so you're left off this round.")
	message.SetString(lang, keyNoticeFinishBelowStart, "<@%s> your finishing count (%d) is lower than your starting count (%d), so you're left off this round.")
	message.SetString(lang, keyNoticeNoProgress, "<@%s> no new words this round. Beep boop, sad robot noises.")

	_ = message.Set(lang, keyCheckInStart, plural.Selectf(2, "%d",
		plural.One, "<@%[1]s> starting count recorded: %[2]d word.",
		plural.Other, "<@%[1]s> starting count recorded: %[2]d words.",
	))
	_ = message.Set(lang, keyCheckInFinish, plural.Selectf(2, "%d",
		plural.One, "<@%[1]s> finishing count recorded: %[2]d word.",
		plural.Other, "<@%[1]s> finishing count recorded: %[2]d words.",
	))
	message.SetString(lang, keyCheckInInvalid, "Word count must be a whole number or \"same\".")
	message.SetString(lang, keyCheckInNoPrior, "You have no previous word count to reuse yet.")
	message.SetString(lang, keyDurationInvalid, "Duration must be a positive whole number.")
	message.SetString(lang, keyGenericFailure, "Something went wrong. Please try again later.")

	message.SetString(lang, keyVersion, "Sprintathon version %s")
	message.SetString(lang, keyAbout, "I run writing sprints and sprintathons. Start a sprint, check in your word count at the start and at the end, and I'll post the results. Version %s.")
	message.SetString(lang, keyHelp, "Commands:\n"+
		"`%[1]sstart_sprintathon [hours]` start a sprintathon (default 24 hours)\n"+
		"`%[1]sstop_sprintathon` cancel the running sprintathon\n"+
		"`%[1]sstart_sprint [minutes]` start a sprint (default 15 minutes)\n"+
		"`%[1]sstop_sprint` cancel the running sprint\n"+
		"`%[1]ssprint <count|same>` check in your word count\n"+
		"`%[1]sleaderboard` show the sprintathon standings\n"+
		"`%[1]sabout`, `%[1]sversion`")
}
