package vision

const analysisPrompt = `Analyze this design image and respond with a single JSON object using exactly this schema:

{
  "typography": {
    "headline": {"style": "serif|sans|mono|display", "weight": "light|regular|bold|black", "size": "large|medium|small"},
    "body": {"style": "serif|sans|mono|display", "weight": "light|regular|bold|black", "size": "large|medium|small"},
    "has_text": true/false
  },
  "composition": {
    "layout": "grid|freeform|centred|asymmetric",
    "text_placement": "top|bottom|overlay|sidebar|centred|none",
    "text_image_ratio": 0.0 to 1.0,
    "whitespace": "minimal|moderate|generous",
    "alignment": "left|centre|right|mixed"
  },
  "textures": {
    "grain": 0.0 to 1.0,
    "contrast": 0.0 to 1.0,
    "halftone": true/false,
    "pattern_density": 0.0 to 1.0
  },
  "mood": {
    "warmth": -1.0 to 1.0,
    "density": -1.0 to 1.0,
    "brightness": -1.0 to 1.0,
    "formality": -1.0 to 1.0
  }
}

Return only the JSON object with no commentary.`
