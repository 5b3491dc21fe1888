package battle

// DuelQuestions is the bank drawn from at random in duels
var DuelQuestions = []Question{
	{ID: 1, Category: "Biology", Text: "What is the powerhouse of the cell?",
		Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Chloroplast"}, Answer: 1, Points: 10},
	{ID: 2, Category: "Mathematics", Text: "What is 15 × 12?",
		Options: []string{"150", "180", "170", "160"}, Answer: 1, Points: 10},
	{ID: 3, Category: "Chemistry", Text: "What is the chemical symbol for Gold?",
		Options: []string{"Go", "Gd", "Au", "Ag"}, Answer: 2, Points: 10},
	{ID: 4, Category: "Physics", Text: "What is the formula for kinetic energy?",
		Options: []string{"E = mc²", "KE = ½mv²", "F = ma", "P = mgh"}, Answer: 1, Points: 10},
	{ID: 5, Category: "Biology", Text: "How many chromosomes do humans have?",
		Options: []string{"23", "46", "48", "24"}, Answer: 1, Points: 10},
	{ID: 6, Category: "Mathematics", Text: "What is the square root of 144?",
		Options: []string{"10", "11", "12", "13"}, Answer: 2, Points: 10},
}

// GymQuestions is the ordered bank the gauntlet walks through
var GymQuestions = []Question{
	{ID: 1, Category: "Biology", Text: "What organelle is responsible for photosynthesis?",
		Options: []string{"Mitochondria", "Chloroplast", "Nucleus", "Ribosome"}, Answer: 1, Points: 15},
	{ID: 2, Category: "Mathematics", Text: "Solve: ∫(2x + 3)dx",
		Options: []string{"x² + 3x + C", "2x² + 3x + C", "x² + 3 + C", "2x + C"}, Answer: 0, Points: 20},
	{ID: 3, Category: "Chemistry", Text: "What is the pH of a neutral solution?",
		Options: []string{"0", "7", "14", "1"}, Answer: 1, Points: 15},
	{ID: 4, Category: "Physics", Text: "What is Newton's Second Law of Motion?",
		Options: []string{"E = mc²", "F = ma", "F = G(m₁m₂)/r²", "v = u + at"}, Answer: 1, Points: 15},
	{ID: 5, Category: "Biology", Text: "What is the process by which cells divide?",
		Options: []string{"Photosynthesis", "Respiration", "Mitosis", "Digestion"}, Answer: 2, Points: 15},
	{ID: 6, Category: "Mathematics", Text: "What is the derivative of x³?",
		Options: []string{"3x²", "x²", "3x", "x³"}, Answer: 0, Points: 20},
	{ID: 7, Category: "Chemistry", Text: "What is the molecular formula for water?",
		Options: []string{"H₂O₂", "HO", "H₂O", "H₃O"}, Answer: 2, Points: 10},
	{ID: 8, Category: "Physics", Text: "What is the speed of light in vacuum?",
		Options: []string{"3 × 10⁸ m/s", "3 × 10⁶ m/s", "3 × 10⁹ m/s", "3 × 10⁷ m/s"}, Answer: 0, Points: 15},
}
