// Package constant holds the button labels, callback prefixes and fixed
// messages used by the bot.
package constant

const (
	EMOJI_MAGNIFIER = "\U0001F50D" // 🔍
	EMOJI_CLAPPER   = "\U0001F3AC" // 🎬
	EMOJI_GEAR      = "\U00002699" // ⚙
	EMOJI_BACK      = "\U00002B05\U0000FE0F " // ⬅️
	EMOJI_MORE      = "\U000027A1\U0000FE0F " // ➡️
	EMOJI_CHECK     = "\U00002705" // ✅
	EMOJI_WARNING   = "\U000026A0\U0000FE0F" // ⚠️

	// Callback data prefixes. Selection-bound prefixes carry a generation
	// token as their second segment; config prefixes do not.
	CB_SELECT      = "sel"
	CB_PAGE        = "pg"
	CB_REQUEST     = "req"
	CB_CATEGORY    = "cat"
	CB_SUBCATEGORY = "sub"
	CB_USER        = "usr"
	CB_NEW_USER    = "newusr"
	CB_MODE        = "mode"
	CB_GROUP       = "grp"
	CB_NOTIFY      = "ntf"
	CB_RELOGIN     = "login"

	BUTTON_TEXT_BACK        = EMOJI_BACK + "Back"
	BUTTON_TEXT_MORE        = EMOJI_MORE + "More"
	BUTTON_TEXT_REQUEST     = "Request this title"
	BUTTON_TEXT_RELOGIN     = "Log in again"
	BUTTON_TEXT_CREATE_USER = "Create new user"

	MSG_PASSWORD_PROMPT = "This bot is password protected. Please send the access password."
	MSG_PASSWORD_WRONG  = "Wrong password. Please try again."
	MSG_PASSWORD_OK     = EMOJI_CHECK + " Password accepted! Send /start to begin."
	MSG_TRANSIENT       = EMOJI_WARNING + " The media server did not respond. Please try again."
	MSG_NEEDS_SETUP     = "You are not set up for the current mode yet. Please run /settings first."
	MSG_STALE_MENU      = "That menu is no longer active. Send /check <title> to start a new search."
	MSG_IDLE_HINT       = "I only understand commands and menu buttons here. Try /check <title> or /settings."
	MSG_ADMIN_ONLY      = "Sorry, only the bot admin can do that."
	MSG_NO_RESULTS      = "No results found. Please try a different title."
	MSG_SELECT_RESULT   = "Please select a result:"
	MSG_CHECK_USAGE     = "Please provide a title to check.\nExample: /check Venom"
)

// PageSize is the number of entries shown per result or user page.
const PageSize = 5
