package gateway

import "fmt"

const systemInstruction = `You are Linki, an elite personal branding strategist and networking coach.
You help ambitious professionals turn their raw experience into a magnetic
personal brand. You are direct, insightful, and allergic to corporate fluff.
Every answer is specific to the user's actual background, never generic advice.`

func analyzePrompt(profileText string) string {
	return fmt.Sprintf(`Analyze the following professional profile information. If the input is a
document (Resume/CV), extract key experience, skills, and career trajectory.

Build a "Digital Twin" analysis covering:
1. Core professional identity and unique value proposition.
2. Tone of voice and communication style.
3. Key expertise areas and credibility markers.
4. The audience this person should be speaking to.

Profile input:
%s`, profileText)
}

func networkingPrompt(profileContext, target string) string {
	return fmt.Sprintf(`Use Google Search to research the target person or company below, then build
a networking strategy connecting them to my background.

My background:
%s

Target:
%s

Respond with ONLY a JSON object, no prose and no markdown fences, with these
exact keys:
{
  "targetName": "the target's name or company",
  "context": "who they are and why they matter to me, grounded in search results",
  "icebreaker": "a specific, personal opening message referencing something real about them",
  "followUp": "a second-touch message that adds value",
  "trustBuilder": "a longer-term play that builds a genuine relationship"
}`, profileContext, target)
}

func contentPrompt(profileContext string, framework Framework, topic string) string {
	return fmt.Sprintf(`Write a social media post in my voice, based on my background below.

My background:
%s

Framework: %s
Topic: %s

Also produce a visual concept for the post: either a description of the
image/overlay, or a short video script with [Visual] and [Audio] columns.`,
		profileContext, frameworkInstruction(framework), topic)
}

func frameworkInstruction(f Framework) string {
	switch f {
	case FrameworkSystemReveal:
		return `System Reveal. Show the exact playbook behind a result. Structure: the
outcome, the hidden system that produced it step by step, the one lever that
matters most. Generous with specifics, zero gatekeeping.`
	case FrameworkRealityCheck:
		return `Reality Check. Confront a comfortable lie the audience tells itself.
Structure: the popular belief, why it fails in practice with evidence from my
experience, the uncomfortable truth, what to do instead. Direct but not cruel.`
	case FrameworkMindsetShift:
		return `Mindset Shift. Reframe how the audience sees a familiar problem.
Structure: the old frame, the moment it broke for me, the new frame, what
changes once you adopt it. Personal narrative over lecture.`
	}
	return string(f)
}

func auditPrompt(profileText string) string {
	return fmt.Sprintf(`Audit the following professional profile against the patterns of top 1%%
creators and operators on professional networks.

Cover:
1. First-impression scan: what a stranger concludes in 5 seconds.
2. Positioning gaps: where the profile undersells or blurs the value.
3. Credibility check: claims vs. proof.
4. Three concrete rewrites or additions, highest impact first.

Profile:
%s`, profileText)
}
