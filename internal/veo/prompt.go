package veo

import "fmt"

// CinematicPromptParams feed the video-generation prompt template.
type CinematicPromptParams struct {
	UserVisualAnchor string
	HeroNarrative    string
	Goal             string
	FocusZone        string
}

// BuildCinematicPrompt assembles the full video-generation prompt. The
// identity lock section keeps the subject recognizable across frames; the
// rest directs an 8-second transformation sequence.
func BuildCinematicPrompt(params CinematicPromptParams) string {
	focusZone := params.FocusZone
	if focusZone == "" {
		focusZone = "full body"
	}

	return fmt.Sprintf(`[IDENTITY LOCK - CRITICAL]
Subject: %s
PRESERVE: exact facial features, skin tone, hair color/style, distinguishing marks throughout entire video.
This person MUST be recognizable as the same individual from start to finish.

[HERO NARRATIVE]
%s

[CINEMATIC SEQUENCE - 8 SECONDS]
Opening (0-2s):
- Close-up on subject's face, eyes closed, breathing deeply
- Golden hour lighting casting warm glow
- Slight camera push-in movement
- Subject opens eyes with fierce determination

Middle (2-6s):
- Dynamic montage of subject training toward their %s goal
- Focus on %s movements and development
- Slow motion captures of effort: muscles tensing, sweat forming, focused expression
- Camera orbits subject in smooth 180-degree arc
- Environment: premium modern gym with electric violet accent lighting

Climax (6-8s):
- Subject stands victorious, transformed, radiating confidence
- Wide shot pulling back to reveal their powerful presence
- Volumetric light rays through windows

[STYLE DIRECTION]
Aesthetic: sports advertisement meets documentary
Lighting: dramatic chiaroscuro, golden hour warmth, volumetric rays
Camera: smooth movements, slow-motion on peak moments, dolly and orbit shots
Color grade: high contrast cinematic, deep blacks, warm highlights

[AUDIO DIRECTION]
- Epic orchestral/electronic hybrid build
- Heartbeat rhythm synced to effort moments
- Triumphant orchestral swell at climax

[CONSTRAINTS]
- Single subject only (no other people visible)
- No text overlays or graphics
- Photorealistic only, no CGI or cartoon effects
- Maintain subject identity throughout entire sequence
- 9:16 vertical format optimized for mobile viewing
- No quick cuts, smooth transitions only`,
		params.UserVisualAnchor, params.HeroNarrative, params.Goal, focusZone)
}
