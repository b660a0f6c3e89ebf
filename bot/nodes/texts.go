package dialognode

// DiagnosticVIN is queried by /checkapi.
const DiagnosticVIN = "Z94CB41AAGR323020"

const (
	textWelcome = `🤖 Добро пожаловать в бот для проверки автомобилей!

Возможности бота:
• Проверка по VIN коду
• Проверка по гос. номеру
• Данные из ГИБДД
• Информация об ОСАГО
• Данные о техосмотре

Выберите способ проверки:`

	textAbout = `ℹ️ О боте

Этот бот помогает получить информацию об автомобилях через официальные API:

• ГИБДД - история регистрации, характеристики, ДТП, розыск, ограничения
• НСИС - данные о полисах ОСАГО
• ЕАИСТО - информация о техосмотре

Бот использует официальные источники данных.`

	textPromptVIN = `Введите VIN код автомобиля (17 символов):

Пример: Z94CB41AAGR323020`

	textPromptPlate = `Введите гос. номер автомобиля:

Примеры:
• А123БВ777
• Е001КХ178
• Х123ХХ123`

	textInvalidVIN = `❌ Неверный формат VIN кода!
VIN должен содержать 17 символов (буквы и цифры)
Пример: Z94CB41AAGR323020`

	textInvalidPlate = `❌ Неверный формат гос. номера!
Номер должен содержать от 7 до 9 символов (буквы и цифры)
Примеры правильных форматов:
• А123БВ777
• Е001КХ178
• Х123ХХ123`

	textProgress = `🔍 Запрашиваю данные...
Это может занять несколько секунд`

	textCheckingAPI = "🔍 Проверяю API ключи..."

	textResultsHeader    = "📊 Результаты проверки:"
	textAPIResultsHeader = "📊 Результаты проверки API:"
	textReportHeader     = "📑 Отчёт по VIN %s:"

	textDetailPrompt   = "📑 Выберите дополнительный отчёт по VIN или вернитесь в меню 👇"
	textNewQueryPrompt = "➡️ Для нового запроса выберите способ проверки"

	textReportUnavailable = "Дополнительные отчёты доступны после проверки по VIN. Выберите способ проверки 👇"
	textUnknownReport     = "Неизвестный тип отчёта. Выберите отчёт из списка 👇"
	textNavigationHint    = "Используйте кнопки для навигации 👇"

	TextQueryFailed = "⚠️ Произошла ошибка при запросе данных. Попробуйте позже."
)
