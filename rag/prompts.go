package rag

// SummaryPrompt is run automatically after an upload. It asks for a
// structured overview of a medical record.
const SummaryPrompt = `Give the description of the given record in these bullet points,
- Medication List: List current prescriptions, note any allergies, and assess compliance.
- Vital Signs: Review recent measurements such as blood pressure, heart rate, and temperature.
- Diagnostic Tests: Examine results of recent tests like blood work, imaging, or ECGs for any abnormalities.
- Progress Notes: Evaluate physician's observations, treatment plans, and any referrals made.`
