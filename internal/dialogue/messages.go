package dialogue

import "fmt"

const (
	msgWelcome = "Welcome to MyDotaInfo, click on the following options to begin!"
	msgInfo    = "This bot is using Steam and OpenDota APIs. The information provided might not be up to date as there are delays.\n" +
		"For more accurate information please use a proper Dota 2 performance tracker.\n\n" +
		"Please expose match data to public in Dota 2 settings. GLHF!"
	msgPromptHandle = "Please enter Steam ID:\nExample: steamcommunity(.)com/id/XXX where XXX is your ID"
	msgBadHandle    = "Something went wrong, key in a valid ID. Use your custom profile name or a steamcommunity(.)com/id/ or /profiles/ link."
	msgNoMatchData  = "This profile does not have any Dota 2 information.\nTry exposing match data in Dota 2 settings.\nTry another profile! Or /start to restart"
	msgPromptLines  = "How many lines you wanna see?"
	msgLinesInteger = "Key In An Integer"
	msgBadCommand   = "Invalid command. /start if unsure"
	msgBadText      = "Invalid text. /start if unsure"
	msgUpstream     = "The stats service is unavailable right now. Please try again later."
)

func msgPromptMatches(max int) string {
	return fmt.Sprintf("How many matches you wanna see? Maximum %d Matches", max)
}

func msgMatchesInteger(max int) string {
	return fmt.Sprintf("Key In An Integer, Maximum %d Matches", max)
}
