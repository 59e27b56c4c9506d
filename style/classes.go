package style

import "github.com/arogya-ai/chatview/chat"

// Element names a styled piece of the message tree.
type Element int

const (
	ElRow Element = iota
	ElInner
	ElAvatar
	ElAvatarInitial
	ElBubble
	ElBadge
	ElImage
	ElTranscription
	ElTranscriptionLabel
	ElTranscriptionText
	ElBody
	ElAudio
	ElFooter
	ElH1
	ElH2
	ElH3
	ElParagraph
	ElUL
	ElOL
	ElLI
	ElStrong
	ElEm
	ElDel
	ElInlineCode
	ElCodeBlock
	ElCodeLabel
	ElPre
	ElBlockquote
	ElLink
	ElTableWrap
	ElTable
	ElTH
	ElTD
	ElHR
)

// pair holds the class list for the user and the assistant variant.
type pair struct{ user, assistant string }

func same(c string) pair { return pair{c, c} }

// classes are utility-class tokens for the HTML backend. Every structural
// element has a user and an assistant variant so the two bubbles stay
// distinguishable inside rich content.
var classes = map[Element]pair{
	ElRow:   {"flex justify-end", "flex justify-start"},
	ElInner: same("flex items-start gap-3 max-w-3xl"),
	ElAvatar: {
		"w-10 h-10 mt-1 flex-shrink-0 rounded-full overflow-hidden",
		"w-10 h-10 mt-1 flex-shrink-0 rounded-full bg-gradient-to-r from-blue-200 to-blue-300 flex items-center justify-center",
	},
	ElAvatarInitial: same("bg-gradient-to-r from-blue-500 to-purple-600 text-white flex items-center justify-center w-full h-full rounded-full text-xs font-semibold"),
	ElBubble: {
		"rounded-2xl px-5 py-4 max-w-[85%] bg-gradient-to-r from-blue-600 to-blue-700 text-white shadow-lg shadow-blue-500/25",
		"rounded-2xl px-5 py-4 max-w-[85%] bg-gray-800 border border-gray-700 shadow-sm shadow-gray-800/50",
	},
	ElBadge: {
		"inline-flex items-center mb-3 rounded text-xs px-2 py-0.5 bg-white/20 text-white border-0",
		"inline-flex items-center mb-3 rounded text-xs px-2 py-0.5 bg-gray-700/50 text-gray-300 border-0",
	},
	ElImage: same("max-w-xs rounded-lg shadow-md select-none"),
	ElTranscription: {
		"mb-3 p-3 rounded-lg text-sm bg-white/10 border border-white/20",
		"mb-3 p-3 rounded-lg text-sm bg-gray-700/50 border border-gray-600/50",
	},
	ElTranscriptionLabel: {"font-medium text-xs mb-1 text-white/90", "font-medium text-xs mb-1 text-gray-300"},
	ElTranscriptionText:  same("text-xs italic whitespace-pre-wrap"),
	ElBody:               same("prose prose-sm max-w-none break-words"),
	ElAudio:              {"text-sm italic text-white/80", "text-sm italic text-gray-300"},
	ElFooter: {
		"flex items-center justify-start mt-3 text-xs opacity-70 pt-2 border-t border-white/20 text-white/70",
		"flex items-center justify-end mt-3 text-xs opacity-70 pt-2 border-t border-gray-600/30 text-gray-400",
	},
	ElH1:         {"text-lg font-bold mb-2 text-white", "text-lg font-bold mb-2 text-gray-100"},
	ElH2:         {"text-base font-semibold mt-4 mb-2 text-white", "text-base font-semibold mt-4 mb-2 text-gray-100"},
	ElH3:         {"text-sm font-semibold mt-3 mb-1 text-white", "text-sm font-semibold mt-3 mb-1 text-gray-100"},
	ElParagraph:  {"text-sm leading-relaxed mb-3 text-white/95", "text-sm leading-relaxed mb-3 text-gray-200"},
	ElUL:         same("list-disc list-inside space-y-1 mb-3 ml-2"),
	ElOL:         same("list-decimal list-inside space-y-1 mb-3 ml-2"),
	ElLI:         {"text-sm text-white/90", "text-sm text-gray-200"},
	ElStrong:     same("font-semibold"),
	ElEm:         same("italic"),
	ElDel:        same("line-through"),
	ElInlineCode: {"bg-gray-800/50 px-1.5 py-0.5 rounded text-xs font-mono text-blue-200", "bg-gray-800/50 px-1.5 py-0.5 rounded text-xs font-mono text-blue-300"},
	ElCodeBlock:  same("relative bg-gray-900 border border-gray-700 rounded-lg p-4 my-4 overflow-x-auto"),
	ElCodeLabel:  same("absolute top-2 right-2 flex items-center space-x-1 text-xs text-gray-400"),
	ElPre:        same("text-sm text-gray-100 mt-2 font-mono"),
	ElBlockquote: {"border-l-4 pl-3 italic my-3 border-blue-500 bg-blue-500/10", "border-l-4 pl-3 italic my-3 border-teal-500 bg-teal-500/10"},
	ElLink:       same("text-blue-400 hover:text-blue-300 hover:underline transition-colors duration-200"),
	ElTableWrap:  same("overflow-x-auto my-4"),
	ElTable:      {"min-w-full border-collapse border border-gray-600/50 rounded-lg bg-blue-500/5", "min-w-full border-collapse border border-gray-600/50 rounded-lg bg-gray-800/50"},
	ElTH:         {"px-3 py-2 text-left font-semibold text-sm border border-gray-600/50 bg-blue-600/20 text-white", "px-3 py-2 text-left font-semibold text-sm border border-gray-600/50 bg-gray-700/50 text-gray-100"},
	ElTD:         {"px-3 py-2 text-sm border border-gray-600/50 text-white/90", "px-3 py-2 text-sm border border-gray-600/50 text-gray-200"},
	ElHR:         {"my-3 border-white/20", "my-3 border-gray-600/50"},
}

// Class returns the class list for el in the given role's theme.
func Class(el Element, role chat.Role) string {
	p, ok := classes[el]
	if !ok {
		return ""
	}
	if role.IsUser() {
		return p.user
	}
	return p.assistant
}
