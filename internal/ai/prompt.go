package ai

import "fmt"

// SystemInstruction is the fixed behavioral policy sent with every revision
// request: one complete, self-contained, runnable document and no prose.
const SystemInstruction = `You are DreamCraft AI, an expert AI Full-Stack Developer and UI/UX Designer.
Your task is to generate complete, single-file HTML solutions that are ready to run.

RULES:
1. Output ONLY valid HTML code. Do not include markdown backticks (e.g., ` + "```html" + `) or descriptions outside the code.
2. The code MUST include all necessary CSS (using Tailwind CSS via CDN) and JavaScript (vanilla) within the single file.
3. Use FontAwesome for icons: <link href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.0.0/css/all.min.css" rel="stylesheet">
4. Use Tailwind CSS for styling: <script src="https://cdn.tailwindcss.com"></script>
5. Use Google Fonts (Inter): <link href="https://fonts.googleapis.com/css2?family=Inter:wght@300;400;500;600;700&display=swap" rel="stylesheet">
6. The design must be modern, clean, responsive, and visually stunning (Mobile-First).
7. Ensure interactive elements (buttons, forms, toggles) have functional JavaScript attached (e.g., event listeners).
8. Do NOT use external CSS/JS files. Embed everything in <style> and <script> tags.
9. If modifying existing code, retain the existing structure/logic unless explicitly asked to refactor, but ensure the new features are integrated seamlessly.
10. Use high-quality placeholder images from https://picsum.photos/WIDTH/HEIGHT if needed.

When the user asks for a change, analyze the previous code (if provided) and output the FULL updated HTML file.`

// BuildMessages assembles the provider conversation for one revision request.
// priorCode is empty when the project still holds the unmodified placeholder,
// so the generator is not anchored to boilerplate it should discard.
func BuildMessages(instruction, priorCode string) []Message {
	prompt := fmt.Sprintf("User Request: %s", instruction)
	if priorCode != "" {
		prompt += fmt.Sprintf("\n\nExisting Code:\n%s\n\nTask: Update the Existing Code based on the User Request. Return the full updated HTML.", priorCode)
	} else {
		prompt += "\n\nTask: Create a new single-file HTML application based on the User Request."
	}
	return []Message{
		{Role: "system", Content: SystemInstruction},
		{Role: "user", Content: prompt},
	}
}
