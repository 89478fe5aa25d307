package prompt

import "github.com/shouni/cineprompt-kit/pkg/domain"

// 役割マーカー。参照画像の直後に置き、どちらのフレームかをモデルに伝えます。
const (
	StartFrameMarker = "[THIS IS THE START FRAME / FIRST FRAME]"
	EndFrameMarker   = "[THIS IS THE END FRAME / LAST FRAME]"
)

// ColorPreservationPhrases は色ずれ対策で必ずプロンプトに含めさせる文言です。
var ColorPreservationPhrases = []string{
	"unchanged exposure",
	"unchanged color grading",
	"unchanged saturation",
	"no added contrast",
}

const baselineTemplate = `Input User (Text): "%s"
Target Model: "%s"

ACTION: Search for "%s prompting guide" and generate the best prompt.`

// familyRules は系統ごとの指示ブロックです。画像の有無で使い分けます。
type familyRules struct {
	imageToVideo string
	textToVideo  string
}

var familyBlocks = map[domain.Family]familyRules{
	domain.FamilyKling: {
		imageToVideo: `KLING IMAGE-TO-VIDEO RULES:
- The reference image(s) already define the subject, wardrobe, setting, lighting and composition.
- Describe ONLY the motion delta: what moves, how it moves, and how the camera moves.
- Do NOT re-describe static visual content that is already visible in the reference image(s); duplicated descriptions cause conflicting visuals.
- Do NOT instruct any hard scene cut. The shot must read as one continuous take.`,
		textToVideo: `KLING TEXT-TO-VIDEO STRUCTURE:
Write the prompt in modular order, one clause per module:
1) Subject (who/what, key visual traits)
2) Action (what the subject does)
3) Environment (where, time of day)
4) Atmosphere & Camera (mood, lighting, camera movement, shot type)`,
	},
	domain.FamilyVeo: {
		imageToVideo: `VEO IMAGE-TO-VIDEO RULES:
- Treat the reference image(s) as the fixed visual anchor.
- Narrate ONLY the motion delta in flowing cinematic prose: the movement of the subject, the environment and the camera.
- Do NOT re-describe static visual content that is already visible in the reference image(s).
- Do NOT instruct any hard scene cut. Keep a single continuous shot.`,
		textToVideo: `VEO TEXT-TO-VIDEO STYLE:
Write a flowing cinematic narrative in natural prose, as a director would describe the shot.
Weave subject, action, setting, lighting and camera movement into continuous sentences instead of keyword lists.`,
	},
}

const (
	strictFidelityDirective = `FIDELITY: STRICT. Describe only what the user wrote and what is visible in the reference image(s). Do NOT invent characters, objects, locations or events that were not specified.`
	creativeDirective       = `FIDELITY: CREATIVE. You may enrich the scene with plausible details, atmosphere and cinematic embellishments that serve the user's intent.`
)

const (
	shortWithColorExemptionDirective = `CONSTRAINT: Keep the 'mainPrompt' CONCISE (approx 20-30 words) for the core action and motion.
EXCEPTION: the mandatory color-fidelity phrases listed below do not count toward this limit. The total length MAY exceed the short cap in order to include them verbatim.`
	shortDirective = `CONSTRAINT: Keep the 'mainPrompt' CONCISE and SHORT (approx 20-40 words). Focus only on the core action and visual style. Avoid unnecessary fluff.`
	longDirective  = `CONSTRAINT: Write a LONG, rich, detailed and descriptive prompt (long form). Cover subject, motion, environment, lighting, texture and camera work in depth.`
)

const (
	techFromImageDirective = `CONSTRAINT: TECHNICAL PARAMETERS FROM REFERENCE. Visually analyze the reference image(s) and reverse-engineer the optical characteristics: focal length / lens type, depth of field, lighting setup and film grain or sensor texture. Embed these inferred technical parameters in the prompt.`
	techInventDirective    = `CONSTRAINT: You MUST include specific TECHNICAL CAMERA PARAMETERS in the prompt (e.g., 'Shot on Arri Alexa, 35mm anamorphic lens, f/1.8 aperture, cinematic lighting'). Choose plausible gear that fits the scene mood.`
)

const colorFidelityTemplate = `COLOR FIDELITY (MANDATORY): The video must keep the exact look of the reference image(s). The 'mainPrompt' MUST contain these phrases verbatim: %s. Do not add any grading, tint or stylization.`

const (
	bridgeTaskDirective    = `TASK: Create a prompt that bridges the Start Frame to the End Frame (Image-to-Video generation). Describe the motion and transformation required to get from the first frame to the last frame.`
	startOnlyTaskDirective = `TASK: Create a video prompt based on this Start Frame, building the motion from this single reference.`
)
