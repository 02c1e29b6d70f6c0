package domain

// DailyFacts are the fun facts served by the dailyfact command.
var DailyFacts = []string{
	"🧠 Your brain uses about 20% of your body's total energy!",
	"🌟 Honey never spoils - archaeologists have found edible honey in ancient Egyptian tombs!",
	"🐙 Octopuses have three hearts and blue blood!",
	"🦋 A group of flamingos is called a 'flamboyance'!",
	"🌍 There are more possible games of chess than atoms in the observable universe!",
	"🐝 Bees can recognize human faces!",
	"🌙 A day on Venus is longer than a year on Venus!",
	"🦈 Sharks have been around longer than trees!",
	"🍌 Bananas are berries, but strawberries aren't!",
	"🐧 Penguins have knees - they're just hidden inside their bodies!",
}

// MotivationalQuotes are the quotes served by the motivation command.
var MotivationalQuotes = []string{
	"💪 'The only way to do great work is to love what you do.' - Steve Jobs",
	"🚀 'Success is not final, failure is not fatal: it is the courage to continue that counts.' - Winston Churchill",
	"⭐ 'Believe you can and you're halfway there.' - Theodore Roosevelt",
	"🌟 'The future belongs to those who believe in the beauty of their dreams.' - Eleanor Roosevelt",
	"🔥 'It is during our darkest moments that we must focus to see the light.' - Aristotle",
	"💎 'The only impossible journey is the one you never begin.' - Tony Robbins",
	"🎯 'In the middle of difficulty lies opportunity.' - Albert Einstein",
	"🌈 'What lies behind us and what lies before us are tiny matters compared to what lies within us.' - Ralph Waldo Emerson",
	"⚡ 'The way to get started is to quit talking and begin doing.' - Walt Disney",
	"🏆 'Don't watch the clock; do what it does. Keep going.' - Sam Levenson",
}
