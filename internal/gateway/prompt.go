package gateway

import (
	"fmt"

	"menugen-studio/internal/style"
)

func menuParsePrompt(menuText string) string {
	return "Parse the following restaurant menu text and extract each dish with its name and description. " +
		"Only include actual food items. Menu:\n\n" + menuText
}

func descriptionPrompt(name, description string, id style.ID) string {
	return fmt.Sprintf(`A professional, ultra-realistic photograph of a dish called "%s".
Description: "%s".
The style should be: %s.
The image must be photorealistic, high-resolution, and look like it's from a high-end food magazine. Focus on appealing textures, lighting, and plating.`,
		name, description, style.Prompt(id))
}

func referencePrompt(name, description string, id style.ID) string {
	return fmt.Sprintf(`You are a professional food photographer. Your task is to transform the user's uploaded photo of a dish into a high-end, professional photograph.

Dish Name: "%s"
Description: "%s"

Instructions:
1. Strictly maintain the original dish's composition, ingredients, and plating from the reference image. The food itself should look identical, just higher quality.
2. Re-render the entire scene to match the following professional style: "%s".
3. Ensure the final image is hyper-realistic, visually pleasing, and looks like it belongs in a premium restaurant menu or a food magazine.
4. Do not add, remove, or change any food items. Only enhance the quality, lighting, and background according to the style.`,
		name, description, style.Prompt(id))
}

func editPrompt(instruction string) string {
	return fmt.Sprintf(`Perform the following edit on this professional food photograph: "%s". Maintain realism and high quality, ensuring the result is visually pleasing.`, instruction)
}
